// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrIdentityClaimed is returned when an identity key is already
	// reserved for the poll. It is raised by the storage uniqueness
	// constraint, never by a read-then-write check.
	ErrIdentityClaimed = errors.New("identity already claimed for poll")
	// ErrInvalidOption is returned when an option does not belong to the poll.
	ErrInvalidOption = errors.New("option does not belong to poll")
	// ErrUnavailable marks infrastructure failures. Safe to retry.
	ErrUnavailable = errors.New("store unavailable")
)

// IdentityKey is one hashed identity layer reserved for a poll.
type IdentityKey struct {
	Layer string
	Hash  string
}

// Counters are the denormalized tallies of a poll.
type Counters struct {
	TotalVotes   int
	UniqueVoters int
	Options      map[string]int // option id -> vote count
}

// ClaimReader looks up identity reservations.
type ClaimReader interface {
	HasClaim(ctx context.Context, pollID string, key IdentityKey) (bool, error)
}

// Tx is the unit of work for appending a vote or rebuilding counters.
// Everything done through a Tx is committed together or not at all.
type Tx interface {
	ClaimReader
	// LockPoll reads the poll and keeps other transactions from changing
	// it or its counters until this one ends. Returns ErrNotFound.
	LockPoll(ctx context.Context, pollID string) (models.Poll, error)
	ListOptions(ctx context.Context, pollID string) ([]models.Option, error)
	ListVotes(ctx context.Context, pollID string) ([]models.Vote, error)
	// WriteCounters overwrites the denormalized counters.
	WriteCounters(ctx context.Context, pollID string, c Counters) error
	// Claim reserves key for voteID. Returns ErrIdentityClaimed if taken.
	Claim(ctx context.Context, pollID string, key IdentityKey, voteID string) error
	InsertVote(ctx context.Context, v models.Vote) error
	// IncrementCounters adds one vote to the option, the poll total and the
	// poll unique voter count. Returns ErrInvalidOption if the option is not
	// part of the poll.
	IncrementCounters(ctx context.Context, pollID, optionID string) error
}

// Store is the persistence boundary. Implementations must enforce
// uniqueness of (poll, layer, hash) claims and run InTx atomically.
type Store interface {
	ClaimReader

	// CreatePoll inserts the poll and all of its options atomically.
	CreatePoll(ctx context.Context, poll models.Poll, options []models.Option) error
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	GetPollBySlug(ctx context.Context, slug string) (models.Poll, error)
	// ListOptions returns options ordered by position.
	ListOptions(ctx context.Context, pollID string) ([]models.Option, error)
	// ListVotes returns the ledger for a poll ordered by creation time.
	ListVotes(ctx context.Context, pollID string) ([]models.Vote, error)
	// ListPollsByCreator returns polls newest first.
	ListPollsByCreator(ctx context.Context, creatorID string) ([]models.Poll, error)
	SetActive(ctx context.Context, pollID string, active bool, at time.Time) error
	// DeletePoll removes the poll, its options, votes and claims.
	DeletePoll(ctx context.Context, pollID string) error

	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Unavailable wraps an infrastructure error so callers can match
// ErrUnavailable. Domain errors pass through unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrIdentityClaimed) ||
		errors.Is(err, ErrInvalidOption) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
