// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/guard"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/tally"
)

var (
	ErrAuthRequired  = errors.New("poll requires an authenticated voter")
	ErrInvalidOption = errors.New("option does not belong to poll")
)

// Ledger appends votes and keeps the denormalized counters in step.
type Ledger struct {
	store store.Store
	guard *guard.Guard
	salt  string
	now   func() time.Time
}

// New returns a Ledger. salt hashes network addresses stored on vote rows.
func New(s store.Store, g *guard.Guard, salt string) *Ledger {
	return &Ledger{store: s, guard: g, salt: salt, now: time.Now}
}

// WithClock overrides the time source used for lifecycle checks and vote
// timestamps.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Append records one vote by d for optionID. All checks that can reject the
// vote run before anything is written; the claim, vote row and counter
// increments then commit together or not at all. The poll's state is
// checked again under the transaction's lock, so a vote cannot land on a
// poll deactivated or deleted since it was loaded.
func (l *Ledger) Append(ctx context.Context, poll models.Poll, optionID string, d identity.Descriptor) (models.Vote, error) {
	now := l.now()
	if err := lifecycle.CheckAcceptsVotes(poll, now); err != nil {
		return models.Vote{}, err
	}
	if d == nil {
		return models.Vote{}, identity.ErrIdentityUnavailable
	}
	if poll.RequireAuth && !identity.IsAuthenticated(d) {
		return models.Vote{}, ErrAuthRequired
	}

	options, err := l.store.ListOptions(ctx, poll.ID)
	if err != nil {
		return models.Vote{}, err
	}
	if !hasOption(options, optionID) {
		return models.Vote{}, ErrInvalidOption
	}

	vote := newVote(poll.ID, optionID, d, l.salt, now)

	err = l.store.InTx(ctx, func(tx store.Tx) error {
		current, err := tx.LockPoll(ctx, poll.ID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckAcceptsVotes(current, now); err != nil {
			return err
		}
		if err := l.guard.CheckAndReserve(ctx, tx, poll.ID, d, vote.ID); err != nil {
			return err
		}
		if err := tx.InsertVote(ctx, vote); err != nil {
			return err
		}
		return tx.IncrementCounters(ctx, poll.ID, optionID)
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrIdentityClaimed):
		// Lost a race at insert or commit time
		return models.Vote{}, &guard.AlreadyVotedError{Layer: d.Primary().Layer}
	case errors.Is(err, store.ErrInvalidOption):
		return models.Vote{}, ErrInvalidOption
	default:
		return models.Vote{}, err
	}

	slog.Info("vote recorded",
		"poll_id", poll.ID,
		"vote_id", vote.ID,
		"option_id", optionID,
		"layer", d.Primary().Layer,
	)
	return vote, nil
}

func hasOption(options []models.Option, optionID string) bool {
	for _, opt := range options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// newVote snapshots the descriptor onto a vote row. The network address is
// only ever stored hashed.
func newVote(pollID, optionID string, d identity.Descriptor, salt string, now time.Time) models.Vote {
	v := models.Vote{
		ID:        uuid.NewString(),
		PollID:    pollID,
		OptionID:  optionID,
		CreatedAt: now.UTC(),
	}
	switch d := d.(type) {
	case identity.Authenticated:
		v.UserID = d.UserID
	case identity.Anonymous:
		v.Fingerprint = d.Fingerprint
		v.UserAgent = d.UserAgent
		if d.NetworkAddress != "" {
			v.AddressHash = auth.HashIP(d.NetworkAddress, salt)
		}
	}
	return v
}

// Results computes results for a poll from its ledger.
func (l *Ledger) Results(ctx context.Context, pollID string) (models.Results, []models.Option, error) {
	options, err := l.store.ListOptions(ctx, pollID)
	if err != nil {
		return models.Results{}, nil, err
	}
	votes, err := l.store.ListVotes(ctx, pollID)
	if err != nil {
		return models.Results{}, nil, err
	}
	return tally.Compute(options, votes), options, nil
}

// Rebuild recomputes the poll's counters from the ledger, reports how the
// stored counters differed, and overwrites them. The ledger read and the
// counter write share one transaction, so no vote can commit in between.
func (l *Ledger) Rebuild(ctx context.Context, pollID string) (models.Results, []models.CounterDrift, error) {
	var results models.Results
	var drift []models.CounterDrift

	err := l.store.InTx(ctx, func(tx store.Tx) error {
		poll, err := tx.LockPoll(ctx, pollID)
		if err != nil {
			return err
		}
		options, err := tx.ListOptions(ctx, pollID)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, pollID)
		if err != nil {
			return err
		}

		results = tally.Compute(options, votes)
		drift = tally.Drift(poll, options, results)
		return tx.WriteCounters(ctx, pollID, store.Counters{
			TotalVotes:   results.TotalVotes,
			UniqueVoters: results.UniqueVoters,
			Options:      tally.OptionCounts(results),
		})
	})
	if err != nil {
		return models.Results{}, nil, err
	}

	if len(drift) > 0 {
		slog.Warn("counters rebuilt from ledger", "poll_id", pollID, "drift", len(drift))
	}
	return results, drift, nil
}
