// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quickly-vote/guard"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/voting"
)

// Machine-readable error codes
const (
	CodePollNotFound        = "poll_not_found"
	CodePollNotActive       = "poll_not_active"
	CodeInvalidOption       = "invalid_option"
	CodeAlreadyVoted        = "already_voted"
	CodeIdentityUnavailable = "identity_unavailable"
	CodeAuthRequired        = "auth_required"
	CodeForbidden           = "forbidden"
	CodeStoreUnavailable    = "store_unavailable"
	CodeInvalidRequest      = "invalid_request"
)

// writeError maps service errors to HTTP responses.
// Rejections are logged at info, infrastructure failures at error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Info("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	middleware.CodedErrorResponse(w, status, code, message)
}

func classify(err error) (status int, code, message string) {
	var alreadyVoted *guard.AlreadyVotedError

	switch {
	case errors.Is(err, voting.ErrPollNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodePollNotFound, "Poll not found"
	case errors.Is(err, lifecycle.ErrPollNotActive):
		return http.StatusConflict, CodePollNotActive, "Poll is not accepting votes"
	case errors.Is(err, ledger.ErrInvalidOption), errors.Is(err, store.ErrInvalidOption):
		return http.StatusBadRequest, CodeInvalidOption, "Option does not belong to this poll"
	case errors.As(err, &alreadyVoted):
		return http.StatusConflict, CodeAlreadyVoted, "You have already voted on this poll"
	case errors.Is(err, identity.ErrIdentityUnavailable):
		return http.StatusUnprocessableEntity, CodeIdentityUnavailable, "Could not identify voter; sign in to vote"
	case errors.Is(err, voting.ErrAuthRequired):
		return http.StatusUnauthorized, CodeAuthRequired, "Authentication required"
	case errors.Is(err, voting.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, "Only the poll creator can do this"
	case errors.Is(err, voting.ErrInvalidRequest):
		return http.StatusBadRequest, CodeInvalidRequest, validationMessage(err)
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, CodeStoreUnavailable, "Storage temporarily unavailable, try again"
	default:
		return http.StatusInternalServerError, "", "Internal error"
	}
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	prefix := voting.ErrInvalidRequest.Error() + ": "
	return strings.TrimPrefix(err.Error(), prefix)
}
