package services

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"go-meet/models"
	"go-meet/search"
	"go-meet/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	vector []float64
	err    error
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls = append(f.calls, text)
	return f.vector, f.err
}

type fakeGeo struct {
	ids    []string
	err    error
	center models.GeoPoint
	radius float64
}

func (f *fakeGeo) NearbyUserIDs(_ context.Context, center models.GeoPoint, radius float64) ([]string, error) {
	f.center, f.radius = center, radius
	return f.ids, f.err
}

// fakeVectors holds a score-ordered index and, like the real backend, ranks
// only the points it is asked about.
type fakeVectors struct {
	hits  []search.Hit
	err   error
	ids   []string
	limit int
}

func (f *fakeVectors) SimilarUsers(_ context.Context, _ []float64, ids []string, limit int) ([]search.Hit, error) {
	f.ids, f.limit = ids, limit
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	var out []search.Hit
	for _, h := range f.hits {
		if allowed[h.ID] && len(out) < limit {
			out = append(out, h)
		}
	}
	return out, f.err
}

type userFixture struct {
	store    *faultyStore
	index    *recordingIndex
	embedder *fakeEmbedder
	geo      *fakeGeo
	vectors  *fakeVectors
	svc      *UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		store:    newFaultyStore(),
		index:    &recordingIndex{},
		embedder: &fakeEmbedder{vector: []float64{0.1, 0.2, 0.3}},
		geo:      &fakeGeo{},
		vectors:  &fakeVectors{},
	}
	f.svc = NewUserService(UserServiceDeps{
		Store:    f.store,
		Embedder: f.embedder,
		Index:    f.index,
		Geo:      f.geo,
		Vectors:  f.vectors,
		Policy:   fastRetry,
		Logger:   zap.NewNop(),
	})
	return f
}

func TestSyncPosition(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1", Name: "Ada"})

	updated, err := f.svc.SyncPosition(context.Background(), u, 41.07, 14.33)
	require.NoError(t, err)
	require.NotNil(t, updated.Location)
	assert.Equal(t, []float64{14.33, 41.07}, updated.Location.Coordinates)
	assert.Equal(t, updated.Location, mustGet(t, f.store, "u1").Location)

	require.Len(t, f.index.upserted, 1)
	assert.Equal(t, "u1", f.index.upserted[0].ID)
	assert.Equal(t, updated.Location, f.index.upserted[0].Location)
}

func TestSyncPositionSameLocationSkipsWrite(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1", Location: geoPtr(41.07, 14.33)})

	_, err := f.svc.SyncPosition(context.Background(), u, 41.07, 14.33)
	require.NoError(t, err)
	assert.Zero(t, f.store.putCount("u1"))
}

func TestSyncPositionRejectsBadCoordinates(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1"})

	for _, c := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -180.5}} {
		_, err := f.svc.SyncPosition(context.Background(), u, c[0], c[1])
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	}
	assert.Zero(t, f.store.putCount("u1"))
}

func TestSyncPositionKeepsConcurrentMatchWrites(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1"})

	other := mustGet(t, f.store, "u1")
	other.Matches = append(other.Matches, models.Match{ID: "u2", Status: models.AwaitingUserAction})
	_, err := f.store.Put(context.Background(), other)
	require.NoError(t, err)

	_, err = f.svc.SyncPosition(context.Background(), u, 1, 2)
	require.NoError(t, err)

	final := mustGet(t, f.store, "u1")
	assert.NotNil(t, final.Location)
	assert.NotNil(t, final.Match("u2"))
}

func TestIndexFailureDoesNotFailWrite(t *testing.T) {
	f := newUserFixture()
	f.index.err = stderrors.New("redis down")
	u := seedUser(t, f.store, models.User{ID: "u1"})

	_, err := f.svc.SyncPosition(context.Background(), u, 1, 2)
	require.NoError(t, err)
	assert.NotNil(t, mustGet(t, f.store, "u1").Location)
}

func TestDescribe(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1"})

	updated, err := f.svc.Describe(context.Background(), u, "  I like jazz and long walks  ")
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "I like jazz and long walks", *updated.Description)
	assert.Equal(t, []string{"I like jazz and long walks"}, f.embedder.calls)

	stored := mustGet(t, f.store, "u1")
	assert.Equal(t, updated.Description, stored.Description)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, stored.DescriptionEmbeddings)

	require.Len(t, f.index.upserted, 1)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, f.index.upserted[0].Embeddings)
}

func TestDescribeValidation(t *testing.T) {
	f := newUserFixture()
	u := seedUser(t, f.store, models.User{ID: "u1"})

	_, err := f.svc.Describe(context.Background(), u, "   ")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = f.svc.Describe(context.Background(), u, strings.Repeat("é", maxDescriptionRunes+1))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Empty(t, f.embedder.calls)

	_, err = f.svc.Describe(context.Background(), u, strings.Repeat("é", maxDescriptionRunes))
	assert.NoError(t, err)
}

func TestDescribeEmbeddingFailureLeavesRecordUntouched(t *testing.T) {
	f := newUserFixture()
	f.embedder.err = stderrors.New("quota exceeded")
	u := seedUser(t, f.store, models.User{ID: "u1"})

	_, err := f.svc.Describe(context.Background(), u, "hello")
	require.Error(t, err)
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "EMBEDDING_ERROR", apiErr.Code)

	stored := mustGet(t, f.store, "u1")
	assert.Nil(t, stored.Description)
	assert.Nil(t, stored.DescriptionEmbeddings)
	assert.Zero(t, f.store.putCount("u1"))
}

func TestCandidates(t *testing.T) {
	f := newUserFixture()
	u := models.User{
		ID:                    "me",
		Location:              geoPtr(41.07, 14.33),
		DescriptionEmbeddings: []float64{1, 0},
		Matches:               []models.Match{{ID: "matched", Status: models.Pending}},
	}
	f.geo.ids = []string{"me", "matched", "n1", "n2", "n3", "n4"}
	f.vectors.hits = []search.Hit{
		{ID: "me", Score: 1},
		{ID: "faraway", Score: 0.99},
		{ID: "n3", Score: 0.9},
		{ID: "matched", Score: 0.85},
		{ID: "n1", Score: 0.8},
		{ID: "n4", Score: 0.5},
		{ID: "n2", Score: 0.4},
	}

	got, err := f.svc.Candidates(context.Background(), u)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, h := range got {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"n3", "n1", "n4"}, ids)
	assert.Equal(t, float64(candidateRadiusMeters), f.geo.radius)
	assert.Equal(t, *u.Location, f.geo.center)
	assert.Equal(t, []string{"n1", "n2", "n3", "n4"}, f.vectors.ids)
	assert.Equal(t, candidateLimit, f.vectors.limit)
}

func TestCandidatesNotCrowdedOutByFarUsers(t *testing.T) {
	f := newUserFixture()
	u := models.User{ID: "me", Location: geoPtr(41.07, 14.33), DescriptionEmbeddings: []float64{1, 0}}
	f.geo.ids = []string{"me", "near", "near"}
	f.vectors.hits = []search.Hit{
		{ID: "far1", Score: 0.99},
		{ID: "far2", Score: 0.98},
		{ID: "far3", Score: 0.97},
		{ID: "far4", Score: 0.96},
		{ID: "near", Score: 0.2},
	}

	got, err := f.svc.Candidates(context.Background(), u)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, []string{"near"}, f.vectors.ids)
}

func TestCandidatesNobodyNearby(t *testing.T) {
	f := newUserFixture()
	f.geo.ids = []string{"me"}
	u := models.User{ID: "me", Location: geoPtr(1, 1), DescriptionEmbeddings: []float64{1}}

	got, err := f.svc.Candidates(context.Background(), u)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, f.vectors.limit, "similarity search skipped")
}

func TestCandidatesPreconditions(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.Candidates(context.Background(), models.User{ID: "me", DescriptionEmbeddings: []float64{1}})
	assert.ErrorIs(t, err, errors.ErrMissingLocationData)

	_, err = f.svc.Candidates(context.Background(), models.User{ID: "me", Location: geoPtr(1, 1)})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCandidatesSearchFailure(t *testing.T) {
	f := newUserFixture()
	f.geo.err = stderrors.New("redis down")
	u := models.User{ID: "me", Location: geoPtr(1, 1), DescriptionEmbeddings: []float64{1}}

	_, err := f.svc.Candidates(context.Background(), u)
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errors.ErrStoreUnavailable.Status, apiErr.Status)
}
