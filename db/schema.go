// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema (statement %d): %w", i, err)
		}
	}

	return nil
}

var schema = []string{
	// Polls
	`CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_id TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
    require_auth BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at TIMESTAMP,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    unique_voters INTEGER NOT NULL DEFAULT 0 CHECK (unique_voters >= 0),
    share_slug TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_creator_id ON poll(creator_id)`,

	// Options
	`CREATE TABLE IF NOT EXISTS poll_option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    option_order INTEGER NOT NULL CHECK (option_order >= 0),
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    UNIQUE (poll_id, option_order)
)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_option_poll_id ON poll_option(poll_id)`,

	// Votes (the ledger)
	`CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES poll_option(id) ON DELETE CASCADE,
    user_id TEXT,
    fingerprint TEXT,
    address_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id)`,
	// NULL user ids are distinct, so this only constrains authenticated votes.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vote_poll_user ON vote(poll_id, user_id)`,

	// Identity claims backing the duplicate guard
	`CREATE TABLE IF NOT EXISTS vote_identity (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    layer TEXT NOT NULL CHECK (layer IN ('user', 'fingerprint', 'address', 'user_agent')),
    key_hash TEXT NOT NULL,
    vote_id TEXT NOT NULL REFERENCES vote(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED,
    PRIMARY KEY (poll_id, layer, key_hash)
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_identity_vote_id ON vote_identity(vote_id)`,
}
