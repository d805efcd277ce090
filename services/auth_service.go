package services

import (
	"context"
	"fmt"

	"go-meet/identity"
	"go-meet/models"
	"go-meet/repositories"
	"go-meet/search"
	"go-meet/utils/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	store    repositories.UserStore
	verifier identity.Verifier
	index    search.Indexer
	policy   RetryPolicy
	logger   *zap.Logger
}

func NewAuthService(store repositories.UserStore, verifier identity.Verifier, index search.Indexer, policy RetryPolicy, logger *zap.Logger) *AuthService {
	return &AuthService{store: store, verifier: verifier, index: index, policy: policy, logger: logger}
}

// Login exchanges an identity provider ID token for a fresh bearer token. The
// user is registered on first login. Any previously issued token stops working
// because the stored digest is overwritten.
func (s *AuthService) Login(ctx context.Context, idToken string) (string, models.User, error) {
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return "", models.User{}, err
	}
	token, err := GenerateToken()
	if err != nil {
		return "", models.User{}, errors.Wrap(err, "TOKEN_ERROR", "Failed to generate token", errors.ErrInternal.Status)
	}

	var user models.User
	err = s.policy.do(ctx, func(ctx context.Context) error {
		users, err := s.store.FindByField(ctx, repositories.FieldEmail, id.Email, 2)
		if err != nil {
			return err
		}
		switch len(users) {
		case 0:
			user = models.User{ID: uuid.New().String(), Email: id.Email, Matches: []models.Match{}}
		case 1:
			user = users[0]
		default:
			return fmt.Errorf("%w: email %s shared by users %s and %s",
				errors.ErrInvariantViolation, id.Email, users[0].ID, users[1].ID)
		}
		user.Name = id.Name
		user.AccessToken = HashToken(token)

		version, err := s.store.Put(ctx, user)
		if err != nil {
			return err
		}
		user.Version = version
		return nil
	})
	if err != nil {
		return "", models.User{}, err
	}

	if err := s.index.Upsert(ctx, user.Projection()); err != nil {
		s.logger.Warn("search index sync failed after login", zap.String("user_id", user.ID), zap.Error(err))
	}
	return token, user, nil
}
