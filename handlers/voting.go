// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/voting"
)

// FingerprintHeader carries the client-generated device fingerprint
const FingerprintHeader = "X-Voter-Fingerprint"

type VotingHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewVotingHandler(svc *voting.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// identityRequest collects the raw identity signals of a request.
func (h *VotingHandler) identityRequest(r *http.Request) identity.Request {
	return identity.Request{
		UserID:      middleware.UserID(r.Context()),
		Fingerprint: r.Header.Get(FingerprintHeader),
		UserAgent:   r.UserAgent(),
		RemoteAddr:  middleware.GetClientIP(r, h.cfg.TrustProxyHeaders),
	}
}

// CastVote handles POST /polls/{id}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON")
		return
	}
	if req.OptionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "option_id is required")
		return
	}
	req.PollID = r.PathValue("id")

	resp, err := h.svc.CastVote(r.Context(), req, h.identityRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// VoteStatus handles GET /polls/{id}/vote-status
func (h *VotingHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.VoteStatus(r.Context(), r.PathValue("id"), h.identityRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}
