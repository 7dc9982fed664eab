// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Vote API server.

Quickly Vote is a single-choice polling service. Anyone with a poll's share
link can vote once; duplicate votes are refused by a layered identity guard
(user account, device fingerprint, network address, user agent) and results
are always recomputed from the vote ledger.

# Starting the Server

Configuration comes from the environment (a .env file is loaded if present)
or CLI flags:

	DATABASE_URL=quickly-vote.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - IDENTITY_SALT (-identity-salt): Secret for identity and address hashing
  - POLL_SLUG_SALT (-slug-salt): Secret for share slug generation
  - JWT_SECRET (-jwt-secret): HMAC secret for bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - STORE_TIMEOUT (-store-timeout): Per-operation store deadline (default: 5s)
  - TRUST_PROXY_HEADERS (-trust-proxy): Read client addresses from X-Forwarded-For

# Architecture

  - handlers, router, middleware: HTTP surface
  - voting: Service API used by the handlers
  - ledger: Atomic vote append and counter rebuild
  - guard: Layered duplicate detection
  - identity: Voter identity descriptors
  - tally: Result aggregation
  - lifecycle: Poll state evaluation
  - store, store/sqlstore, store/memstore: Persistence
  - auth, cliparse, models, db: Supporting packages

See package documentation for each component.
*/
package main
