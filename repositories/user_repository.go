package repositories

import (
	"context"

	"go-meet/models"
)

// UserStore is the document store contract the core relies on. Every method
// touches a single record; there is no cross-record atomicity.
//
// Implementations report optimistic write races as errors.ErrConflict and
// transport failures or deadlines as errors.ErrStoreUnavailable.
type UserStore interface {
	// FindByField returns at most limit records whose field equals value. The
	// field is not the partition key, so this may scan across partitions.
	FindByField(ctx context.Context, field string, value any, limit int) ([]models.User, error)
	// GetByID returns the record with the given id; found is false when absent.
	GetByID(ctx context.Context, id string) (user models.User, found bool, err error)
	// Put writes the record if its stored version still equals user.Version
	// (zero: the record must not exist yet) and returns the new version.
	Put(ctx context.Context, user models.User) (int64, error)
}

// POIStore provides the static point-of-interest catalog.
type POIStore interface {
	ListPOIs(ctx context.Context) ([]models.POI, error)
}

// Field names shared by the store implementations.
const (
	FieldAccessToken = "access_token"
	FieldEmail       = "email"
)
