package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"

	"golang.org/x/crypto/blake2b"
)

const (
	tokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// SessionService resolves opaque bearer tokens to user records.
type SessionService struct {
	store repositories.UserStore
}

func NewSessionService(store repositories.UserStore) *SessionService {
	return &SessionService{store: store}
}

// GenerateToken returns a random alphanumeric bearer token.
func GenerateToken() (string, error) {
	var sb strings.Builder
	sb.Grow(tokenLength)
	radix := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < tokenLength; i++ {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		sb.WriteByte(tokenAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// HashToken is the form a token is stored and looked up in. The digest is
// deterministic so the store can match it by equality.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the single user holding token. Zero matches, a store error and
// more than one match all fail as unauthenticated; the last one also reports an
// invariant violation since tokens are expected to be unique.
func (s *SessionService) Resolve(ctx context.Context, token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.User{}, errors.ErrUnauthenticated
	}

	// Two is enough to tell "none", "one" and "more than one" apart.
	users, err := s.store.FindByField(ctx, repositories.FieldAccessToken, HashToken(token), 2)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", errors.ErrUnauthenticated, err)
	}
	switch len(users) {
	case 0:
		return models.User{}, errors.ErrUnauthenticated
	case 1:
		return users[0], nil
	default:
		return models.User{}, fmt.Errorf("%w: %w: access token shared by users %s and %s",
			errors.ErrUnauthenticated, errors.ErrInvariantViolation, users[0].ID, users[1].ID)
	}
}
