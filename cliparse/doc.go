// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL connection string or SQLite file (required unless memory)
  - DatabaseType: sqlite, postgres or memory (default: sqlite)
  - IdentitySalt: Secret for hashing voter identity layers (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - JWTSecret: HS256 secret for bearer token verification (required)
  - StoreTimeout: Deadline for each store operation (default: 5s)
  - TrustProxyHeaders: Take client addresses from X-Forwarded-For (default: false)

# Environment Variables

The environment is read first with github.com/caarlos0/env, using the
struct tags on Config:

	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	IDENTITY_SALT        → -identity-salt
	POLL_SLUG_SALT       → -slug-salt
	JWT_SECRET           → -jwt-secret
	STORE_TIMEOUT        → -store-timeout
	TRUST_PROXY_HEADERS  → -trust-proxy

CLI flags take precedence over environment variables. main loads a .env
file before calling ParseFlags, so values from it behave like real
environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided for sqlite and postgres
  - IDENTITY_SALT, POLL_SLUG_SALT and JWT_SECRET must be provided
  - STORE_TIMEOUT must be a positive duration
*/
package cliparse
