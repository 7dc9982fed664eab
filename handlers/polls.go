// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/voting"
)

type PollHandler struct {
	svc *voting.Service
}

func NewPollHandler(svc *voting.Service) *PollHandler {
	return &PollHandler{svc: svc}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.CreatePoll(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// GetPoll handles GET /polls/{id}, where id may also be a share slug
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.svc.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// SetActive handles POST /polls/{id}/active
func (h *PollHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req models.SetActiveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.SetActive(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePoll(r.Context(), middleware.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyPolls handles GET /users/me/polls
func (h *PollHandler) ListMyPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.svc.ListCreatorPolls(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListPollsResponse{Polls: polls})
}
