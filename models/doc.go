// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, visibility, require_auth, expires_at, options
  - SetActiveRequest: active
  - CastVoteRequest: option_id, fingerprint

# Response Types

Types for JSON responses:

  - CastVoteResponse: vote, results
  - VoteStatusResponse: has_voted, layer
  - ResultsResponse: poll_id, title, poll_state, results
  - ReconcileResponse: results, drift
  - ListPollsResponse: polls
  - ErrorResponse: error, message, code

# Domain Types

Internal data structures:

  - Poll: poll metadata, lifecycle flag and denormalized counters
  - Option: voting option with stable 0-based position
  - Vote: immutable ledger entry with the voter descriptor snapshot
  - Results: ledger-derived counts, percentages and leading option
  - CounterDrift: stored counter that disagrees with the ledger

Vote identity fields (user id, fingerprint, address hash, user agent) are
tagged json:"-" and never leave the server.

# Constants

Visibility values:

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

Poll states:

	StateActive      = "active"
	StateExpired     = "expired"
	StateDeactivated = "deactivated"

Option limits:

	MinOptions = 2
	MaxOptions = 10
*/
package models
