// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasClaim(ctx context.Context, q dbtx, dialect, pollID string, key store.IdentityKey) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, rebind(dialect, `
		SELECT EXISTS(
			SELECT 1 FROM vote_identity
			WHERE poll_id = ? AND layer = ? AND key_hash = ?
		)
	`), pollID, key.Layer, key.Hash).Scan(&exists)
	if err != nil {
		return false, store.Unavailable("find claim", err)
	}
	return exists, nil
}

func (s *Store) HasClaim(ctx context.Context, pollID string, key store.IdentityKey) (bool, error) {
	return hasClaim(ctx, s.db, s.dialect, pollID, key)
}

func (s *Store) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	return listVotes(ctx, s.db, s.dialect, pollID)
}

func listVotes(ctx context.Context, q dbtx, dialect, pollID string) ([]models.Vote, error) {
	rows, err := q.QueryContext(ctx, rebind(dialect, `
		SELECT id, poll_id, option_id, user_id, fingerprint, address_hash, user_agent, created_at
		FROM vote
		WHERE poll_id = ?
		ORDER BY created_at, id
	`), pollID)
	if err != nil {
		return nil, store.Unavailable("list votes", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		var userID, fingerprint, addressHash, userAgent sql.NullString
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &userID, &fingerprint,
			&addressHash, &userAgent, &v.CreatedAt); err != nil {
			return nil, store.Unavailable("scan vote", err)
		}
		v.UserID = userID.String
		v.Fingerprint = fingerprint.String
		v.AddressHash = addressHash.String
		v.UserAgent = userAgent.String
		v.CreatedAt = v.CreatedAt.UTC()
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list votes", err)
	}
	return votes, nil
}

// InTx runs fn in a database transaction. Errors returned by fn are passed
// through unchanged after rollback.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return store.ErrIdentityClaimed
		}
		return store.Unavailable("commit tx", err)
	}
	return nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect string
}

func (t *sqlTx) HasClaim(ctx context.Context, pollID string, key store.IdentityKey) (bool, error) {
	return hasClaim(ctx, t.tx, t.dialect, pollID, key)
}

// LockPoll reads the poll and holds it until the transaction ends. SQLite
// transactions already own the write lock from BEGIN IMMEDIATE.
func (t *sqlTx) LockPoll(ctx context.Context, pollID string) (models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM poll WHERE id = ?`
	if t.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	p, err := scanPoll(t.tx.QueryRowContext(ctx, rebind(t.dialect, query), pollID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, store.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, store.Unavailable("lock poll", err)
	}
	return p, nil
}

func (t *sqlTx) ListOptions(ctx context.Context, pollID string) ([]models.Option, error) {
	return listOptions(ctx, t.tx, t.dialect, pollID)
}

func (t *sqlTx) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	return listVotes(ctx, t.tx, t.dialect, pollID)
}

func (t *sqlTx) WriteCounters(ctx context.Context, pollID string, c store.Counters) error {
	return writeCounters(ctx, t.tx, t.dialect, pollID, c)
}

func (t *sqlTx) Claim(ctx context.Context, pollID string, key store.IdentityKey, voteID string) error {
	_, err := t.tx.ExecContext(ctx, rebind(t.dialect, `
		INSERT INTO vote_identity (poll_id, layer, key_hash, vote_id)
		VALUES (?, ?, ?, ?)
	`), pollID, key.Layer, key.Hash, voteID)
	if isUniqueViolation(err) {
		return store.ErrIdentityClaimed
	}
	if err != nil {
		return store.Unavailable("claim identity", err)
	}
	return nil
}

func (t *sqlTx) InsertVote(ctx context.Context, v models.Vote) error {
	_, err := t.tx.ExecContext(ctx, rebind(t.dialect, `
		INSERT INTO vote (id, poll_id, option_id, user_id, fingerprint, address_hash, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), v.ID, v.PollID, v.OptionID, nullString(v.UserID), nullString(v.Fingerprint),
		nullString(v.AddressHash), nullString(v.UserAgent), v.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return store.ErrIdentityClaimed
	}
	if err != nil {
		return store.Unavailable("insert vote", err)
	}
	return nil
}

func (t *sqlTx) IncrementCounters(ctx context.Context, pollID, optionID string) error {
	res, err := t.tx.ExecContext(ctx, rebind(t.dialect, `
		UPDATE poll_option SET vote_count = vote_count + 1
		WHERE id = ? AND poll_id = ?
	`), optionID, pollID)
	if err != nil {
		return store.Unavailable("increment option counter", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("increment option counter", err)
	}
	if n == 0 {
		return store.ErrInvalidOption
	}

	// An identity admitted by the guard is always new to the poll, so the
	// unique voter count moves with the total.
	res, err = t.tx.ExecContext(ctx, rebind(t.dialect, `
		UPDATE poll SET total_votes = total_votes + 1, unique_voters = unique_voters + 1
		WHERE id = ?
	`), pollID)
	if err != nil {
		return store.Unavailable("increment poll counters", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return store.Unavailable("increment poll counters", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
