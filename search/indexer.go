// Package search keeps the denormalized, searchable projection of users in sync
// with the document store and answers proximity and similarity queries over it.
//
// Index writes are best effort: callers log failures and never roll back the
// store write that triggered them.
package search

import (
	"context"
	"errors"

	"go-meet/models"
)

// Indexer is the write side of the search index.
type Indexer interface {
	// Upsert creates the projection or merges the given fields into an existing one.
	Upsert(ctx context.Context, projection models.UserProjection) error
	Delete(ctx context.Context, id string) error
}

// GeoFinder answers "who is near this point".
type GeoFinder interface {
	NearbyUserIDs(ctx context.Context, center models.GeoPoint, radiusMeters float64) ([]string, error)
}

// VectorSearcher ranks indexed users by description similarity. Only the users
// listed in ids are considered.
type VectorSearcher interface {
	SimilarUsers(ctx context.Context, vector []float64, ids []string, limit int) ([]Hit, error)
}

type Hit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// Indexers fans a write out to several backends. Every backend is attempted;
// the failures are joined.
type Indexers []Indexer

func (m Indexers) Upsert(ctx context.Context, projection models.UserProjection) error {
	var errs []error
	for _, idx := range m {
		if err := idx.Upsert(ctx, projection); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Indexers) Delete(ctx context.Context, id string) error {
	var errs []error
	for _, idx := range m {
		if err := idx.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
