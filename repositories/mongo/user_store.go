package mongo

import (
	"context"
	"fmt"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserStore keeps one document per user, keyed by the user id.
type UserStore struct {
	collection *mongo.Collection
}

var _ repositories.UserStore = (*UserStore)(nil)

func NewUserStore(ctx context.Context, db *mongo.Database, collectionName string, logger *zap.Logger) *UserStore {
	collection := db.Collection(collectionName)

	// Email is the natural external key. The access token deliberately has no
	// unique index: its uniqueness is checked by the session resolver.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: repositories.FieldEmail, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("failed to create unique index on users.email", zap.Error(err))
	}
	return &UserStore{collection: collection}
}

func (s *UserStore) FindByField(ctx context.Context, field string, value any, limit int) ([]models.User, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.collection.Find(ctx, bson.M{field: bson.M{"$eq": value}}, opts)
	if err != nil {
		return nil, storeErr("find users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	return users, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, bool, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, storeErr("get user", err)
	}
	return user, true, nil
}

func (s *UserStore) Put(ctx context.Context, user models.User) (int64, error) {
	if user.ID == "" {
		return 0, errors.ErrInvalidInput
	}
	expected := user.Version
	user.Version = expected + 1

	if expected == 0 {
		_, err := s.collection.InsertOne(ctx, user)
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: user %s already exists", errors.ErrConflict, user.ID)
		}
		if err != nil {
			return 0, storeErr("insert user", err)
		}
		return user.Version, nil
	}

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": user.ID, "version": expected}, user)
	if err != nil {
		return 0, storeErr("replace user", err)
	}
	if res.MatchedCount == 0 {
		return 0, fmt.Errorf("%w: user %s changed since version %d", errors.ErrConflict, user.ID, expected)
	}
	return user.Version, nil
}
