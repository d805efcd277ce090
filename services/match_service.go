package services

import (
	"context"
	"fmt"

	"go-meet/models"
	"go-meet/repositories"
	"go-meet/utils/errors"
)

// MatchRequest is one step of the match lifecycle issued by the actor against
// a peer. PeerName and PeerDescription are only read by a proposal, as the
// snapshot stored on the actor's side.
type MatchRequest struct {
	Operation       models.MatchOperation
	PeerID          string
	PeerName        string
	PeerDescription string
}

// MatchService drives the two-sided match state machine. Each side lives in a
// different user record and the store offers no multi-record transaction, so an
// operation is two optimistic single-record writes: the actor's record first,
// then the peer's. A failure after the first write is reported as
// errors.ErrPartiallyApplied and nothing is rolled back; repeating the same
// request completes it, because every step is idempotent.
type MatchService struct {
	store  repositories.UserStore
	policy RetryPolicy
}

func NewMatchService(store repositories.UserStore, policy RetryPolicy) *MatchService {
	return &MatchService{store: store, policy: policy}
}

// Apply runs req on behalf of actor. The peer record is always read fresh.
func (s *MatchService) Apply(ctx context.Context, actor models.User, req MatchRequest) error {
	if !req.Operation.Valid() || req.PeerID == "" {
		return errors.ErrInvalidInput
	}
	if req.PeerID == actor.ID {
		return fmt.Errorf("%w: cannot match with yourself", errors.ErrInvalidInput)
	}

	peer, err := getUser(ctx, s.store, s.policy, req.PeerID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) && req.Operation != models.OpPropose {
			return fmt.Errorf("%w: %w", errors.ErrMatchNotFound, err)
		}
		return err
	}

	actorSide, peerSide, err := plan(actor, peer, req)
	if err != nil {
		return err
	}

	stored, err := updateRecord(ctx, s.store, s.policy, actor, actorSide)
	if err != nil {
		return err
	}
	peer, err = updateRecord(ctx, s.store, s.policy, peer, peerSide)
	if err != nil {
		return fmt.Errorf("%w: %s by %s stored, side of %s failed: %w",
			errors.ErrPartiallyApplied, req.Operation, actor.ID, peer.ID, err)
	}
	if req.Operation != models.OpPropose {
		return nil
	}

	// The peer proposed at the same time and kept its proposal: this one
	// yields and the actor's side becomes the receiving side.
	if theirs := peer.Match(actor.ID); theirs != nil && theirs.Status == models.Pending {
		if _, err := updateRecord(ctx, s.store, s.policy, stored, yieldTo(peer.ID)); err != nil {
			return fmt.Errorf("%w: crossed proposal from %s to %s not settled: %w",
				errors.ErrPartiallyApplied, actor.ID, peer.ID, err)
		}
		return errors.ErrDuplicateMatch
	}
	return nil
}

// plan validates the pair as currently stored and returns the mutation for
// each side.
func plan(actor, peer models.User, req MatchRequest) (mutation, mutation, error) {
	mine := actor.Match(peer.ID)
	theirs := peer.Match(actor.ID)

	if req.Operation == models.OpPropose {
		// A lone Pending entry is what a proposal interrupted between its two
		// writes leaves behind, and Pending on both sides is two proposals that
		// crossed. Both are completed rather than rejected.
		open := func(m *models.Match) bool { return m == nil || m.Status == models.Pending }
		if !open(mine) || !open(theirs) {
			return nil, nil, errors.ErrDuplicateMatch
		}
		description := ""
		if actor.Description != nil {
			description = *actor.Description
		}
		actorEntry := models.Match{
			ID:          peer.ID,
			Name:        req.PeerName,
			Description: req.PeerDescription,
			Status:      models.Pending,
		}
		peerEntry := models.Match{
			ID:          actor.ID,
			Name:        actor.Name,
			Description: description,
			Status:      models.AwaitingUserAction,
		}
		return addEntry(actorEntry), offer(peerEntry, actor.ID < peer.ID), nil
	}

	target := req.Operation.TargetStatus()
	if mine == nil || theirs == nil || !decidable(mine.Status, theirs.Status, target) {
		return nil, nil, errors.ErrMatchNotFound
	}
	return setStatus(peer.ID, target), setStatus(actor.ID, target), nil
}

// decidable reports whether a pair with the given statuses may be moved to
// target. Sides already at target count as done, so an interrupted or repeated
// decision can be replayed.
func decidable(mine, theirs, target models.MatchStatus) bool {
	switch {
	case mine == target && theirs == target:
		return true
	case mine == target:
		return !theirs.Terminal()
	case theirs == target:
		return !mine.Terminal()
	default:
		return mine.Complementary(theirs)
	}
}

func addEntry(entry models.Match) mutation {
	return func(rec *models.User) (bool, error) {
		if existing := rec.Match(entry.ID); existing != nil {
			if existing.Status == entry.Status {
				return false, nil
			}
			return false, errors.ErrDuplicateMatch
		}
		rec.Matches = append(rec.Matches, entry)
		return true, nil
	}
}

// offer writes the proposer's entry on the peer's side. A Pending entry there
// means the peer proposed too; the proposal from the smaller user id stands.
func offer(entry models.Match, proposerWins bool) mutation {
	return func(rec *models.User) (bool, error) {
		existing := rec.Match(entry.ID)
		switch {
		case existing == nil:
			rec.Matches = append(rec.Matches, entry)
			return true, nil
		case existing.Status == models.AwaitingUserAction:
			return false, nil
		case existing.Status == models.Pending:
			if !proposerWins {
				return false, nil
			}
			existing.Status = models.AwaitingUserAction
			return true, nil
		}
		return false, errors.ErrDuplicateMatch
	}
}

// yieldTo turns the actor's own Pending entry into the receiving side after
// losing a crossed proposal.
func yieldTo(counterpartID string) mutation {
	return func(rec *models.User) (bool, error) {
		entry := rec.Match(counterpartID)
		if entry == nil || entry.Status != models.Pending {
			return false, nil
		}
		entry.Status = models.AwaitingUserAction
		return true, nil
	}
}

func setStatus(counterpartID string, target models.MatchStatus) mutation {
	return func(rec *models.User) (bool, error) {
		entry := rec.Match(counterpartID)
		switch {
		case entry == nil:
			return false, errors.ErrMatchNotFound
		case entry.Status == target:
			return false, nil
		case entry.Status.Terminal():
			return false, errors.ErrMatchNotFound
		}
		entry.Status = target
		return true, nil
	}
}
