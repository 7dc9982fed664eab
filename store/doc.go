// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the persistence boundary for polls, options, votes and
identity claims.

# Backends

Two implementations satisfy Store:

  - sqlstore: database/sql over PostgreSQL or SQLite
  - memstore: in-memory, for development and tests

# Transactions

Writes that must agree with each other go through InTx:

	err := s.InTx(ctx, func(tx store.Tx) error {
		poll, err := tx.LockPoll(ctx, pollID)
		if err != nil {
			return err
		}
		...
		return tx.IncrementCounters(ctx, pollID, optionID)
	})

LockPoll holds the poll until the transaction ends, so a vote append and a
counter rebuild on the same poll never interleave. Counters are only ever
written inside a Tx.

# Errors

	ErrNotFound         - poll does not exist
	ErrIdentityClaimed  - identity key already reserved (uniqueness constraint)
	ErrInvalidOption    - option is not part of the poll
	ErrUnavailable      - infrastructure failure, safe to retry

Unavailable wraps driver errors in ErrUnavailable and passes the domain
errors through unchanged.
*/
package store
