package services

import (
	"context"
	"fmt"
	"time"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a transient store failure (a version conflict or
// an unavailable store) is retried before it is surfaced.
type RetryPolicy struct {
	Attempts  uint64
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 20 * time.Millisecond}
}

func transient(err error) bool {
	return errors.Is(err, errors.ErrConflict) || errors.Is(err, errors.ErrStoreUnavailable)
}

func (p RetryPolicy) do(ctx context.Context, f retry.RetryFunc) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := f(ctx)
		if transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return err
}

// mutation edits one record in memory and reports whether anything changed.
// It must be safe to run again on a freshly read copy of the same record.
type mutation func(rec *models.User) (changed bool, err error)

// updateRecord is a single-record optimistic read-modify-write. The first
// attempt mutates rec as given; after a conflict or store failure the record
// is re-read by id and the mutation re-run. Unchanged records are not written.
func updateRecord(ctx context.Context, store repositories.UserStore, policy RetryPolicy, rec models.User, mutate mutation) (models.User, error) {
	current := rec.Clone()
	reload := false

	err := policy.do(ctx, func(ctx context.Context) error {
		if reload {
			fresh, found, err := store.GetByID(ctx, current.ID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: user %s", errors.ErrNotFound, current.ID)
			}
			current = fresh
		}
		reload = true

		next := current.Clone()
		changed, err := mutate(&next)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		version, err := store.Put(ctx, next)
		if err != nil {
			return err
		}
		next.Version = version
		current = next
		return nil
	})
	return current, err
}

func getUser(ctx context.Context, store repositories.UserStore, policy RetryPolicy, id string) (models.User, error) {
	var user models.User
	err := policy.do(ctx, func(ctx context.Context) error {
		u, found, err := store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
		}
		user = u
		return nil
	})
	return user, err
}
