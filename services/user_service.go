package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-meet/embeddings"
	"go-meet/models"
	"go-meet/repositories"
	"go-meet/search"
	"go-meet/utils/errors"

	"go.uber.org/zap"
)

const (
	candidateRadiusMeters = 5000
	candidateLimit        = 3
	maxDescriptionRunes   = 1000
)

type UserService struct {
	store    repositories.UserStore
	embedder embeddings.Provider
	index    search.Indexer
	geo      search.GeoFinder
	vectors  search.VectorSearcher
	policy   RetryPolicy
	logger   *zap.Logger
}

type UserServiceDeps struct {
	Store    repositories.UserStore
	Embedder embeddings.Provider
	Index    search.Indexer
	Geo      search.GeoFinder
	Vectors  search.VectorSearcher
	Policy   RetryPolicy
	Logger   *zap.Logger
}

func NewUserService(deps UserServiceDeps) *UserService {
	return &UserService{
		store:    deps.Store,
		embedder: deps.Embedder,
		index:    deps.Index,
		geo:      deps.Geo,
		vectors:  deps.Vectors,
		policy:   deps.Policy,
		logger:   deps.Logger,
	}
}

// SyncPosition records the user's last known location.
func (s *UserService) SyncPosition(ctx context.Context, user models.User, lat, lon float64) (models.User, error) {
	if !models.ValidCoordinates(lat, lon) {
		return models.User{}, fmt.Errorf("%w: invalid coordinates: lat=%f, lon=%f", errors.ErrInvalidInput, lat, lon)
	}
	updated, err := updateRecord(ctx, s.store, s.policy, user, func(rec *models.User) (bool, error) {
		loc := models.NewGeoPoint(lat, lon)
		if rec.Location != nil && rec.Location.Lat() == lat && rec.Location.Lon() == lon {
			return false, nil
		}
		rec.Location = &loc
		return true, nil
	})
	if err != nil {
		return models.User{}, err
	}
	s.syncIndex(ctx, updated, "position")
	return updated, nil
}

// Describe stores the profile text together with its embedding.
func (s *UserService) Describe(ctx context.Context, user models.User, description string) (models.User, error) {
	description = strings.TrimSpace(description)
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionRunes {
		return models.User{}, fmt.Errorf("%w: description must be 1-%d characters", errors.ErrInvalidInput, maxDescriptionRunes)
	}
	vector, err := s.embedder.Embed(ctx, description)
	if err != nil {
		return models.User{}, errors.Wrap(err, "EMBEDDING_ERROR", "Failed to process description", errors.ErrStoreUnavailable.Status)
	}

	updated, err := updateRecord(ctx, s.store, s.policy, user, func(rec *models.User) (bool, error) {
		d := description
		rec.Description = &d
		rec.DescriptionEmbeddings = append([]float64(nil), vector...)
		return true, nil
	})
	if err != nil {
		return models.User{}, err
	}
	s.syncIndex(ctx, updated, "description")
	return updated, nil
}

// Candidates suggests up to three users within 5 km whose descriptions are most
// similar to the caller's. Users already in a match with the caller are skipped.
func (s *UserService) Candidates(ctx context.Context, user models.User) ([]search.Hit, error) {
	if user.Location == nil || !user.Location.Valid() {
		return nil, errors.ErrMissingLocationData
	}
	if len(user.DescriptionEmbeddings) == 0 {
		return nil, fmt.Errorf("%w: profile has no description yet", errors.ErrNotFound)
	}

	nearbyIDs, err := s.geo.NearbyUserIDs(ctx, *user.Location, candidateRadiusMeters)
	if err != nil {
		return nil, errors.Wrap(err, "SEARCH_ERROR", "Failed to search nearby users", errors.ErrStoreUnavailable.Status)
	}
	nearby := make(map[string]struct{}, len(nearbyIDs))
	ids := make([]string, 0, len(nearbyIDs))
	for _, id := range nearbyIDs {
		if _, seen := nearby[id]; seen || id == user.ID || user.Match(id) != nil {
			continue
		}
		nearby[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []search.Hit{}, nil
	}

	// Ranking is restricted to the nearby users, so better scoring users
	// elsewhere cannot crowd them out.
	hits, err := s.vectors.SimilarUsers(ctx, user.DescriptionEmbeddings, ids, candidateLimit)
	if err != nil {
		return nil, errors.Wrap(err, "SEARCH_ERROR", "Failed to rank candidates", errors.ErrStoreUnavailable.Status)
	}

	out := make([]search.Hit, 0, candidateLimit)
	for _, hit := range hits {
		if _, ok := nearby[hit.ID]; !ok {
			continue
		}
		out = append(out, hit)
		if len(out) == candidateLimit {
			break
		}
	}
	return out, nil
}

func (s *UserService) syncIndex(ctx context.Context, user models.User, reason string) {
	if err := s.index.Upsert(ctx, user.Projection()); err != nil {
		s.logger.Warn("search index sync failed",
			zap.String("user_id", user.ID), zap.String("reason", reason), zap.Error(err))
	}
}
