// Package memory holds in-process store implementations for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

var _ repositories.UserStore = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) FindByField(ctx context.Context, field string, value any, limit int) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.User
	for _, id := range ids {
		u := s.users[id]
		if !fieldEquals(u, field, value) {
			continue
		}
		out = append(out, u.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, false, errors.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	return u.Clone(), true, nil
}

func (s *UserStore) Put(ctx context.Context, user models.User) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.ErrStoreUnavailable
	}
	if user.ID == "" {
		return 0, errors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.users[user.ID]
	switch {
	case !exists && user.Version != 0:
		return 0, errors.ErrConflict
	case exists && current.Version != user.Version:
		return 0, errors.ErrConflict
	}
	stored := user.Clone()
	stored.Version = user.Version + 1
	s.users[user.ID] = stored
	return stored.Version, nil
}

func fieldEquals(u models.User, field string, value any) bool {
	v, ok := value.(string)
	if !ok {
		return false
	}
	switch field {
	case repositories.FieldAccessToken:
		return u.AccessToken == v
	case repositories.FieldEmail:
		return u.Email == v
	case "_id", "id":
		return u.ID == v
	case "name":
		return u.Name == v
	default:
		return false
	}
}
