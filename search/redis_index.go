package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go-meet/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	usersGeoKey = "users:geo"
	poisGeoKey  = "pois:geo"
)

func userProfileKey(id string) string { return "user:" + id + ":profile" }
func poiKey(id string) string         { return "poi:" + id }

// RedisIndex keeps each user's display fields in a hash and their last known
// position in a geo set. It also serves the POI catalog by proximity.
type RedisIndex struct {
	client *redis.Client
}

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (r *RedisIndex) Upsert(ctx context.Context, p models.UserProjection) error {
	fields := map[string]any{"name": p.Name}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if err := r.client.HSet(ctx, userProfileKey(p.ID), fields).Err(); err != nil {
		return fmt.Errorf("redis index profile %s: %w", p.ID, err)
	}
	if p.Location == nil || !p.Location.Valid() {
		return nil
	}
	err := r.client.GeoAdd(ctx, usersGeoKey, &redis.GeoLocation{
		Name:      p.ID,
		Longitude: p.Location.Lon(),
		Latitude:  p.Location.Lat(),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis index location %s: %w", p.ID, err)
	}
	return nil
}

func (r *RedisIndex) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, usersGeoKey, id)
	pipe.Del(ctx, userProfileKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	return nil
}

func (r *RedisIndex) NearbyUserIDs(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]string, error) {
	geoResults, err := r.client.GeoRadius(ctx, usersGeoKey, center.Lon(), center.Lat(), &redis.GeoRadiusQuery{
		Radius: radiusMeters,
		Unit:   "m",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis nearby users: %w", err)
	}
	ids := make([]string, 0, len(geoResults))
	for _, res := range geoResults {
		ids = append(ids, res.Name)
	}
	return ids, nil
}

// IndexPOIs replaces the POI geo set with the given catalog.
func (r *RedisIndex) IndexPOIs(ctx context.Context, pois []models.POI, logger *zap.Logger) error {
	if err := r.client.Del(ctx, poisGeoKey).Err(); err != nil {
		return fmt.Errorf("redis reset poi index: %w", err)
	}
	indexed := 0
	for _, poi := range pois {
		poiJSON, err := json.Marshal(poi)
		if err != nil {
			logger.Warn("failed to marshal poi", zap.String("poi", poi.Name), zap.Error(err))
			continue
		}
		if err := r.client.HSet(ctx, poiKey(poi.ID), "data", poiJSON).Err(); err != nil {
			logger.Warn("failed to store poi", zap.String("poi", poi.Name), zap.Error(err))
			continue
		}
		err = r.client.GeoAdd(ctx, poisGeoKey, &redis.GeoLocation{
			Name:      poi.ID,
			Longitude: poi.Location.Lon(),
			Latitude:  poi.Location.Lat(),
		}).Err()
		if err != nil {
			logger.Warn("failed to add poi to geo set", zap.String("poi", poi.Name), zap.Error(err))
			continue
		}
		indexed++
	}
	logger.Info("indexed points of interest", zap.Int("count", indexed))
	return nil
}

// NearbyPOIs lists catalog entries within radiusMeters, closest first,
// optionally filtered by type.
func (r *RedisIndex) NearbyPOIs(ctx context.Context, lat, lon, radiusMeters float64, poiType string) ([]models.POI, error) {
	geoResults, err := r.client.GeoRadius(ctx, poisGeoKey, lon, lat, &redis.GeoRadiusQuery{
		Radius:   radiusMeters,
		Unit:     "m",
		WithDist: true,
		Sort:     "ASC",
		Count:    50,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis nearby pois: %w", err)
	}

	results := make([]models.POI, 0, len(geoResults))
	for _, geoResult := range geoResults {
		poiJSON, err := r.client.HGet(ctx, poiKey(geoResult.Name), "data").Result()
		if err != nil {
			continue
		}
		var poi models.POI
		if err := json.Unmarshal([]byte(poiJSON), &poi); err != nil {
			continue
		}
		if poiType != "" && poi.Type != poiType {
			continue
		}
		results = append(results, poi)
	}
	return results, nil
}
