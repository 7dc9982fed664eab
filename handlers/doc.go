// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Vote API.

# Handler Types

Each handler is a thin struct over the voting service:

  - PollHandler: Poll creation, lookup, activation, deletion and listing
  - VotingHandler: Vote submission and vote status
  - ResultsHandler: Results and counter reconciliation

	pollHandler := handlers.NewPollHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc, cfg)

Handlers decode the request, call the service and map its errors through
writeError. The {id} path value accepts a poll id or its share slug.

# Identity

VotingHandler gathers the voter's raw identity from the request: the user id
attached by the auth middleware, the X-Voter-Fingerprint header, the
User-Agent header and the client address.

# Errors

Every error body carries a machine-readable code:

	poll_not_found        404
	poll_not_active       409
	already_voted         409
	invalid_option        400
	invalid_request       400
	auth_required         401
	forbidden             403
	identity_unavailable  422
	store_unavailable     503 (with Retry-After)
*/
package handlers
