// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on PostgreSQL and SQLite.

# Tables

The schema includes:

  - poll: Poll metadata, active flag and denormalized counters
  - poll_option: Options with a stable 0-based position
  - vote: Append-only vote ledger with the voter descriptor snapshot
  - vote_identity: One row per reserved identity layer per poll

# Relationships

	poll 1──* poll_option
	poll 1──* vote
	poll_option 1──* vote
	vote 1──* vote_identity

All foreign keys use ON DELETE CASCADE.

# Constraints

  - poll_option.(poll_id, option_order) is unique
  - vote.(poll_id, user_id) is unique for authenticated votes
  - vote_identity.(poll_id, layer, key_hash) is the primary key

The vote_identity primary key is what makes duplicate detection safe under
concurrent submissions: two transactions cannot both reserve the same
hashed fingerprint, address, user agent or user id for one poll.
*/
package db
