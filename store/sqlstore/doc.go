// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sqlstore implements store.Store on database/sql.

# Dialects

	s, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, "quickly-vote.db")
	s, err := sqlstore.Open(ctx, sqlstore.DialectPostgres, "postgres://...")

Queries are written with ? placeholders and rebound to $N for PostgreSQL.
Open creates the schema via db.CreateSchema.

SQLite runs with foreign keys on, WAL, a busy timeout and _txlock=immediate
on a single connection, so every transaction owns the write lock from its
first statement. PostgreSQL transactions lock the poll row with
SELECT ... FOR UPDATE in LockPoll.

# Uniqueness

vote_identity has primary key (poll_id, layer, key_hash). A violation,
whether raised at insert or at commit, is reported as
store.ErrIdentityClaimed:

  - lib/pq: *pq.Error code 23505
  - modernc sqlite: *sqlite.Error primary key and unique constraint codes
*/
package sqlstore
