package services

import (
	"context"
	"fmt"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"
)

// NearbyPOIFinder lists catalog entries around a point.
type NearbyPOIFinder interface {
	NearbyPOIs(ctx context.Context, lat, lon, radiusMeters float64, poiType string) ([]models.POI, error)
}

type GeoService struct {
	store  repositories.UserStore
	policy RetryPolicy
	pois   []models.POI // loaded once at startup, read-only afterwards
	nearby NearbyPOIFinder
}

func NewGeoService(store repositories.UserStore, policy RetryPolicy, pois []models.POI, nearby NearbyPOIFinder) *GeoService {
	return &GeoService{
		store:  store,
		policy: policy,
		pois:   append([]models.POI(nil), pois...),
		nearby: nearby,
	}
}

// Meet proposes where actor and peer should meet. Both sides of their match
// must be Accepted and both users must have shared a location.
func (s *GeoService) Meet(ctx context.Context, actor models.User, peerID string) (models.POI, error) {
	mine := actor.Match(peerID)
	if mine == nil || mine.Status != models.Accepted {
		return models.POI{}, errors.ErrNotMatched
	}
	peer, err := getUser(ctx, s.store, s.policy, peerID)
	if err != nil {
		return models.POI{}, err
	}
	if theirs := peer.Match(actor.ID); theirs == nil || theirs.Status != models.Accepted {
		return models.POI{}, errors.ErrNotMatched
	}
	return SelectMeetingPoint(actor.Location, peer.Location, s.pois)
}

// SelectMeetingPoint picks the point of interest closest to the midpoint of the
// two locations. The midpoint is the plain mean of the coordinates, which is
// close enough at city scale. Ties go to the earliest point in pois.
func SelectMeetingPoint(user, peer *models.GeoPoint, pois []models.POI) (models.POI, error) {
	if user == nil || peer == nil || !user.Valid() || !peer.Valid() {
		return models.POI{}, errors.ErrMissingLocationData
	}
	if len(pois) == 0 {
		return models.POI{}, fmt.Errorf("%w: no points of interest configured", errors.ErrNotFound)
	}

	midLat := (user.Lat() + peer.Lat()) / 2
	midLon := (user.Lon() + peer.Lon()) / 2

	best := 0
	bestDist := squaredDistance(midLat, midLon, pois[0].Location)
	for i := 1; i < len(pois); i++ {
		if d := squaredDistance(midLat, midLon, pois[i].Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	return pois[best], nil
}

func squaredDistance(lat, lon float64, p models.GeoPoint) float64 {
	dLat := lat - p.Lat()
	dLon := lon - p.Lon()
	return dLat*dLat + dLon*dLon
}

// FindNearbyPOIs lists catalog entries within radius meters of a point.
func (s *GeoService) FindNearbyPOIs(ctx context.Context, lat, lon, radius float64, poiType string) ([]models.POI, error) {
	if !models.ValidCoordinates(lat, lon) || radius <= 0 {
		return nil, errors.ErrInvalidInput
	}
	if s.nearby == nil {
		return nil, fmt.Errorf("%w: poi index not configured", errors.ErrNotFound)
	}
	return s.nearby.NearbyPOIs(ctx, lat, lon, radius, poiType)
}
