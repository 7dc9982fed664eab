// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Authentication

Bearer tokens are verified with the configured JWT secret:

	authn := middleware.NewAuthenticator(cfg.JWTSecret)
	mux.HandleFunc("POST /polls", middleware.WithLogging(authn.Required(h.CreatePoll)))
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(authn.Optional(h.CastVote)))

Handlers read the caller with middleware.UserID(r.Context()), which is
empty for anonymous requests. A present but invalid token is always
rejected with 401, even on optional routes.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Voter-Fingerprint.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.CodedErrorResponse(w, http.StatusConflict, "already_voted", "message")

Parse JSON request bodies:

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r, cfg.TrustProxyHeaders)

X-Forwarded-For and X-Real-IP are only honoured when the server runs
behind a trusted proxy. The address feeds the voter identity address
layer and is only ever stored hashed.
*/
package middleware
