package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go-meet/models"
	"go-meet/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type POIStore struct {
	collection *mongo.Collection
}

var _ repositories.POIStore = (*POIStore)(nil)

func NewPOIStore(db *mongo.Database, collectionName string) *POIStore {
	return &POIStore{collection: db.Collection(collectionName)}
}

func (s *POIStore) ListPOIs(ctx context.Context) ([]models.POI, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, storeErr("find pois", err)
	}
	defer cursor.Close(ctx)
	var pois []models.POI
	if err := cursor.All(ctx, &pois); err != nil {
		return nil, storeErr("decode pois", err)
	}
	return pois, nil
}

// SeedIfEmpty loads the catalog from a JSON file when the collection has no documents.
func (s *POIStore) SeedIfEmpty(ctx context.Context, path string, logger *zap.Logger) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return storeErr("count pois", err)
	}
	if count > 0 {
		return nil
	}

	pois, err := LoadPOIFile(path)
	if err != nil {
		return err
	}
	logger.Info("seeding points of interest", zap.Int("count", len(pois)), zap.String("collection", s.collection.Name()))

	docs := make([]any, 0, len(pois))
	for _, poi := range pois {
		docs = append(docs, poi)
	}
	if len(docs) == 0 {
		return nil
	}
	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return storeErr("seed pois", err)
	}
	logger.Info("seeded points of interest", zap.Int("inserted", len(result.InsertedIDs)))
	return nil
}

func LoadPOIFile(path string) ([]models.POI, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open poi file: %w", err)
	}
	defer file.Close()

	var pois []models.POI
	if err := json.NewDecoder(file).Decode(&pois); err != nil {
		return nil, fmt.Errorf("decode poi file: %w", err)
	}
	for i, poi := range pois {
		if !poi.Location.Valid() {
			return nil, fmt.Errorf("poi %d (%s) has invalid coordinates", i, poi.Name)
		}
	}
	return pois, nil
}
