package search

import (
	"context"
	"testing"

	"go-meet/models"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// fakePoints records the calls the index makes; unused methods panic through
// the embedded nil interface.
type fakePoints struct {
	pb.PointsClient
	upserts     []*pb.UpsertPoints
	setPayloads []*pb.SetPayloadPoints
	deletes     []*pb.DeletePoints
	searchResp  *pb.SearchResponse
	searches    []*pb.SearchPoints
}

func (f *fakePoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.upserts = append(f.upserts, in)
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) SetPayload(_ context.Context, in *pb.SetPayloadPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.setPayloads = append(f.setPayloads, in)
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.deletes = append(f.deletes, in)
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.searches = append(f.searches, in)
	return f.searchResp, nil
}

func newTestQdrant(points *fakePoints) *QdrantIndex {
	return &QdrantIndex{points: points, collection: "users"}
}

func TestQdrantUpsertWithEmbeddingUploadsPoint(t *testing.T) {
	points := &fakePoints{}
	desc := "climbing and jazz"
	err := newTestQdrant(points).Upsert(context.Background(), models.UserProjection{
		ID: "0b6e3f0e-8a47-4f39-9c4e-1d2b1f9a7c11", Name: "Ada", Description: &desc, Embeddings: []float64{0.5, 0.25},
	})
	require.NoError(t, err)

	require.Len(t, points.upserts, 1)
	assert.Empty(t, points.setPayloads)
	pt := points.upserts[0].Points[0]
	assert.Equal(t, "0b6e3f0e-8a47-4f39-9c4e-1d2b1f9a7c11", pt.Id.GetUuid())
	assert.Equal(t, []float32{0.5, 0.25}, pt.Vectors.GetVector().GetData())
	assert.Equal(t, "climbing and jazz", pt.Payload["description"].GetStringValue())
}

func TestQdrantUpsertWithoutEmbeddingMergesPayload(t *testing.T) {
	points := &fakePoints{}
	err := newTestQdrant(points).Upsert(context.Background(), models.UserProjection{ID: "u1", Name: "Ada"})
	require.NoError(t, err)

	assert.Empty(t, points.upserts)
	require.Len(t, points.setPayloads, 1)
	assert.Equal(t, "Ada", points.setPayloads[0].Payload["name"].GetStringValue())
}

func TestQdrantDeleteAndSearch(t *testing.T) {
	points := &fakePoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{{
		Id:      pointID("u2"),
		Score:   0.9,
		Payload: map[string]*pb.Value{"name": stringValue("Bob"), "description": stringValue("jazz")},
	}}}}
	idx := newTestQdrant(points)

	require.NoError(t, idx.Delete(context.Background(), "u2"))
	assert.Len(t, points.deletes, 1)

	hits, err := idx.SimilarUsers(context.Background(), []float64{1, 0}, []string{"u2", "u3"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []Hit{{ID: "u2", Name: "Bob", Description: "jazz", Score: 0.9}}, hits)

	require.Len(t, points.searches, 1)
	req := points.searches[0]
	assert.Equal(t, uint64(3), req.Limit)
	require.NotNil(t, req.Filter)
	require.Len(t, req.Filter.Must, 1)
	var allowed []string
	for _, id := range req.Filter.Must[0].GetHasId().GetHasId() {
		allowed = append(allowed, id.GetUuid())
	}
	assert.Equal(t, []string{"u2", "u3"}, allowed)
}

func TestQdrantSearchWithoutCandidatesSkipsCall(t *testing.T) {
	points := &fakePoints{}
	hits, err := newTestQdrant(points).SimilarUsers(context.Background(), []float64{1}, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Empty(t, points.searches)
}
