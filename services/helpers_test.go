package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-meet/models"
	"go-meet/repositories/memory"
	"go-meet/search"

	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}

// faultyStore wraps the in-memory store and fails the next Puts of chosen
// records with a preset error.
type faultyStore struct {
	*memory.UserStore
	mu       sync.Mutex
	failPuts map[string][]error
	puts     map[string]int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		UserStore: memory.NewUserStore(),
		failPuts:  make(map[string][]error),
		puts:      make(map[string]int),
	}
}

func (s *faultyStore) failNextPuts(id string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts[id] = append(s.failPuts[id], errs...)
}

func (s *faultyStore) Put(ctx context.Context, user models.User) (int64, error) {
	s.mu.Lock()
	s.puts[user.ID]++
	if queued := s.failPuts[user.ID]; len(queued) > 0 {
		err := queued[0]
		s.failPuts[user.ID] = queued[1:]
		s.mu.Unlock()
		return 0, err
	}
	s.mu.Unlock()
	return s.UserStore.Put(ctx, user)
}

func (s *faultyStore) putCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[id]
}

func seedUser(t *testing.T, store *faultyStore, u models.User) models.User {
	t.Helper()
	if u.Matches == nil {
		u.Matches = []models.Match{}
	}
	_, err := store.UserStore.Put(context.Background(), u)
	require.NoError(t, err)
	got, found, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, found)
	return got
}

func mustGet(t *testing.T, store *faultyStore, id string) models.User {
	t.Helper()
	u, found, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	return u
}

func strPtr(s string) *string { return &s }

func geoPtr(lat, lon float64) *models.GeoPoint {
	p := models.NewGeoPoint(lat, lon)
	return &p
}

// recordingIndex captures index writes and can be told to fail.
type recordingIndex struct {
	mu       sync.Mutex
	upserted []models.UserProjection
	err      error
}

func (r *recordingIndex) Upsert(_ context.Context, p models.UserProjection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, p)
	return r.err
}

func (r *recordingIndex) Delete(context.Context, string) error { return r.err }

var _ search.Indexer = (*recordingIndex)(nil)
