package search

import (
	"context"
	"fmt"

	"go-meet/models"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex stores one point per user: the description embedding as the
// vector, display fields as payload. User ids are UUIDs and double as point ids.
type QdrantIndex struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

func NewQdrant(host string, port int, collection string) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantIndex{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
	}, nil
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func pointID(id string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
}

func pointSelector(id string) *pb.PointsSelector {
	return &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Points{
			Points: &pb.PointsIdsList{Ids: []*pb.PointId{pointID(id)}},
		},
	}
}

func payloadOf(p models.UserProjection) map[string]*pb.Value {
	payload := map[string]*pb.Value{"name": stringValue(p.Name)}
	if p.Description != nil {
		payload["description"] = stringValue(*p.Description)
	}
	return payload
}

// Upsert uploads the point when the projection carries an embedding and only
// merges the payload otherwise. Users without an embedding are never searchable
// by similarity, so a payload merge against a missing point is not an error.
func (q *QdrantIndex) Upsert(ctx context.Context, p models.UserProjection) error {
	if len(p.Embeddings) == 0 {
		_, err := q.points.SetPayload(ctx, &pb.SetPayloadPoints{
			CollectionName: q.collection,
			Payload:        payloadOf(p),
			PointsSelector: pointSelector(p.ID),
		})
		if err != nil {
			return fmt.Errorf("qdrant merge payload %s: %w", p.ID, err)
		}
		return nil
	}

	vec := make([]float32, len(p.Embeddings))
	for i, v := range p.Embeddings {
		vec[i] = float32(v)
	}
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Points: []*pb.PointStruct{{
			Id:      pointID(p.ID),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vec}}},
			Payload: payloadOf(p),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert %s: %w", p.ID, err)
	}
	return nil
}

func (q *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := q.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: q.collection,
		Points:         pointSelector(id),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete %s: %w", id, err)
	}
	return nil
}

// SimilarUsers searches among the given points only, through a has_id filter.
func (q *QdrantIndex) SimilarUsers(ctx context.Context, vector []float64, ids []string, limit int) ([]Hit, error) {
	if len(ids) == 0 {
		return []Hit{}, nil
	}
	vec := make([]float32, len(vector))
	for i, v := range vector {
		vec[i] = float32(v)
	}
	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vec,
		Filter: &pb.Filter{Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_HasId{HasId: &pb.HasIdCondition{HasId: pointIDs}},
		}}},
		Limit: uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]Hit, len(resp.Result))
	for i, pt := range resp.Result {
		hits[i] = Hit{
			ID:          pt.Id.GetUuid(),
			Name:        pt.Payload["name"].GetStringValue(),
			Description: pt.Payload["description"].GetStringValue(),
			Score:       pt.Score,
		}
	}
	return hits, nil
}

func (q *QdrantIndex) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}
