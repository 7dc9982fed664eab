// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Vote API.

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, cfg)

# Endpoints

Health:

	GET /health

Poll management (bearer token required, except GET):

	POST   /polls              - Create poll
	GET    /polls/{id}         - Poll info and options (id or share slug)
	POST   /polls/{id}/active  - Activate or deactivate (creator)
	DELETE /polls/{id}         - Delete poll (creator)
	GET    /users/me/polls     - List own polls

Voting (bearer token optional):

	POST /polls/{id}/votes       - Cast a vote
	GET  /polls/{id}/vote-status - Has this voter already voted

Results:

	GET  /polls/{id}/results   - Results computed from the ledger
	POST /polls/{id}/reconcile - Rewrite stored counters (creator)

Every route is wrapped in middleware.WithLogging.
*/
package router
