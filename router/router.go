// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/voting"
)

func NewRouter(svc *voting.Service, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc)
	authn := middleware.NewAuthenticator(cfg.JWTSecret)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management (creator operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(authn.Required(pollHandler.CreatePoll)))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("POST /polls/{id}/active", middleware.WithLogging(authn.Required(pollHandler.SetActive)))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(authn.Required(pollHandler.DeletePoll)))
	mux.HandleFunc("GET /users/me/polls", middleware.WithLogging(authn.Required(pollHandler.ListMyPolls)))

	// Voting (anonymous or authenticated; {id} accepts a poll id or share slug)
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(authn.Optional(votingHandler.CastVote)))
	mux.HandleFunc("GET /polls/{id}/vote-status", middleware.WithLogging(authn.Optional(votingHandler.VoteStatus)))

	// Results
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("POST /polls/{id}/reconcile", middleware.WithLogging(authn.Required(resultsHandler.Reconcile)))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-vote API v1"))
	})

	return mux
}
