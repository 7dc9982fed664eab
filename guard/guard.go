// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/store"
)

// ErrAlreadyVoted matches every *AlreadyVotedError.
var ErrAlreadyVoted = errors.New("already voted")

// AlreadyVotedError reports the identity layer that matched a prior vote.
// Layer is empty when the match was detected by the store constraint.
type AlreadyVotedError struct {
	Layer identity.Layer
}

func (e *AlreadyVotedError) Error() string {
	if e.Layer == "" {
		return ErrAlreadyVoted.Error()
	}
	return fmt.Sprintf("%s (matched on %s)", ErrAlreadyVoted, e.Layer)
}

func (e *AlreadyVotedError) Is(target error) bool {
	return target == ErrAlreadyVoted
}

// Match is the result of a read-only duplicate check.
type Match struct {
	Voted bool
	Layer identity.Layer
}

// Guard decides whether a descriptor may vote on a poll.
type Guard struct {
	claims store.ClaimReader
	salt   string
}

// New returns a Guard that reads committed claims from claims and hashes
// identity values with salt.
func New(claims store.ClaimReader, salt string) *Guard {
	return &Guard{claims: claims, salt: salt}
}

// Key returns the stored claim key for one identity layer.
func (g *Guard) Key(k identity.Key) store.IdentityKey {
	return store.IdentityKey{
		Layer: string(k.Layer),
		Hash:  auth.HashIdentity(string(k.Layer), k.Value, g.salt),
	}
}

// firstMatch walks the descriptor's layers in precedence order.
func (g *Guard) firstMatch(ctx context.Context, r store.ClaimReader, pollID string, d identity.Descriptor) (Match, error) {
	for _, k := range d.Keys() {
		claimed, err := r.HasClaim(ctx, pollID, g.Key(k))
		if err != nil {
			return Match{}, err
		}
		if claimed {
			return Match{Voted: true, Layer: k.Layer}, nil
		}
	}
	return Match{}, nil
}

// HasVoted reports whether any layer of d already has a vote on the poll.
func (g *Guard) HasVoted(ctx context.Context, pollID string, d identity.Descriptor) (Match, error) {
	if d == nil {
		return Match{}, identity.ErrIdentityUnavailable
	}
	return g.firstMatch(ctx, g.claims, pollID, d)
}

// CheckAndReserve rejects d if any of its layers has voted, then claims every
// layer for voteID. Must run inside the transaction that inserts the vote.
// A claim that loses a concurrent race is reported as AlreadyVoted too.
func (g *Guard) CheckAndReserve(ctx context.Context, tx store.Tx, pollID string, d identity.Descriptor, voteID string) error {
	if d == nil || len(d.Keys()) == 0 {
		return identity.ErrIdentityUnavailable
	}

	m, err := g.firstMatch(ctx, tx, pollID, d)
	if err != nil {
		return err
	}
	if m.Voted {
		return &AlreadyVotedError{Layer: m.Layer}
	}

	for _, k := range d.Keys() {
		err := tx.Claim(ctx, pollID, g.Key(k), voteID)
		if errors.Is(err, store.ErrIdentityClaimed) {
			return &AlreadyVotedError{Layer: k.Layer}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
