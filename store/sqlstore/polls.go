// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
)

const pollColumns = `id, title, description, creator_id, visibility, require_auth,
	expires_at, active, total_votes, unique_voters, share_slug, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var expiresAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.CreatorID, &p.Visibility, &p.RequireAuth,
		&expiresAt, &p.Active, &p.TotalVotes, &p.UniqueVoters, &p.ShareSlug,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Poll{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		p.ExpiresAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// CreatePoll inserts the poll and its options in one transaction.
func (s *Store) CreatePoll(ctx context.Context, poll models.Poll, options []models.Option) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("begin create poll", err)
	}
	defer tx.Rollback()

	var expiresAt sql.NullTime
	if poll.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: poll.ExpiresAt.UTC(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, rebind(s.dialect, `
		INSERT INTO poll (id, title, description, creator_id, visibility, require_auth,
			expires_at, active, total_votes, unique_voters, share_slug, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)
	`), poll.ID, poll.Title, poll.Description, poll.CreatorID, poll.Visibility, poll.RequireAuth,
		expiresAt, poll.Active, poll.ShareSlug, poll.CreatedAt.UTC(), poll.UpdatedAt.UTC())
	if err != nil {
		return store.Unavailable("insert poll", err)
	}

	for _, opt := range options {
		_, err = tx.ExecContext(ctx, rebind(s.dialect, `
			INSERT INTO poll_option (id, poll_id, option_text, option_order, vote_count)
			VALUES (?, ?, ?, ?, 0)
		`), opt.ID, poll.ID, opt.Text, opt.Position)
		if err != nil {
			return store.Unavailable("insert option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Unavailable("commit create poll", err)
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, `SELECT `+pollColumns+` FROM poll WHERE id = ?`), id)
	p, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, store.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, store.Unavailable("get poll", err)
	}
	return p, nil
}

func (s *Store) GetPollBySlug(ctx context.Context, slug string) (models.Poll, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, `SELECT `+pollColumns+` FROM poll WHERE share_slug = ?`), slug)
	p, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, store.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, store.Unavailable("get poll by slug", err)
	}
	return p, nil
}

func (s *Store) ListOptions(ctx context.Context, pollID string) ([]models.Option, error) {
	return listOptions(ctx, s.db, s.dialect, pollID)
}

func listOptions(ctx context.Context, q dbtx, dialect, pollID string) ([]models.Option, error) {
	rows, err := q.QueryContext(ctx, rebind(dialect, `
		SELECT id, poll_id, option_text, option_order, vote_count
		FROM poll_option
		WHERE poll_id = ?
		ORDER BY option_order
	`), pollID)
	if err != nil {
		return nil, store.Unavailable("list options", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position, &opt.VoteCount); err != nil {
			return nil, store.Unavailable("scan option", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list options", err)
	}
	return options, nil
}

func (s *Store) ListPollsByCreator(ctx context.Context, creatorID string) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT `+pollColumns+`
		FROM poll
		WHERE creator_id = ?
		ORDER BY created_at DESC, id
	`), creatorID)
	if err != nil {
		return nil, store.Unavailable("list polls", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, store.Unavailable("scan poll", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list polls", err)
	}
	return polls, nil
}

func (s *Store) SetActive(ctx context.Context, pollID string, active bool, at time.Time) error {
	res, err := s.db.ExecContext(ctx, rebind(s.dialect, `
		UPDATE poll SET active = ?, updated_at = ? WHERE id = ?
	`), active, at.UTC(), pollID)
	if err != nil {
		return store.Unavailable("set active", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("set active", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePoll removes children explicitly so the cascade holds even when the
// backend has foreign key enforcement disabled.
func (s *Store) DeletePoll(ctx context.Context, pollID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("begin delete poll", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM vote_identity WHERE poll_id = ?`,
		`DELETE FROM vote WHERE poll_id = ?`,
		`DELETE FROM poll_option WHERE poll_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, q), pollID); err != nil {
			return store.Unavailable("delete poll children", err)
		}
	}

	res, err := tx.ExecContext(ctx, rebind(s.dialect, `DELETE FROM poll WHERE id = ?`), pollID)
	if err != nil {
		return store.Unavailable("delete poll", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("delete poll", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return store.Unavailable("commit delete poll", err)
	}
	return nil
}

// writeCounters overwrites the poll and option counters. Options missing
// from c.Options are reset to zero.
func writeCounters(ctx context.Context, q dbtx, dialect, pollID string, c store.Counters) error {
	res, err := q.ExecContext(ctx, rebind(dialect, `
		UPDATE poll SET total_votes = ?, unique_voters = ? WHERE id = ?
	`), c.TotalVotes, c.UniqueVoters, pollID)
	if err != nil {
		return store.Unavailable("write poll counters", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("write poll counters", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if _, err := q.ExecContext(ctx, rebind(dialect, `
		UPDATE poll_option SET vote_count = 0 WHERE poll_id = ?
	`), pollID); err != nil {
		return store.Unavailable("reset option counters", err)
	}
	for optionID, count := range c.Options {
		if _, err := q.ExecContext(ctx, rebind(dialect, `
			UPDATE poll_option SET vote_count = ? WHERE id = ? AND poll_id = ?
		`), count, optionID, pollID); err != nil {
			return store.Unavailable("write option counter", err)
		}
	}
	return nil
}
