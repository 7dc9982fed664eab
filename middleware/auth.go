// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/auth"
)

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user id, or "" for anonymous requests
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// Authenticator verifies bearer tokens issued by the session service
type Authenticator struct {
	secret string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// authenticate returns the request's user id. A missing header is not an
// error; a present but invalid token is.
func (a *Authenticator) authenticate(r *http.Request) (string, error) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if errors.Is(err, auth.ErrMissingToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return auth.VerifyUserToken(token, a.secret)
}

// Optional attaches the user id when a valid bearer token is present and
// lets anonymous requests through.
func (a *Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.authenticate(r)
		if err != nil {
			slog.Info("rejected bearer token", "path", r.URL.Path, "error", err)
			CodedErrorResponse(w, http.StatusUnauthorized, "invalid_token", "Invalid bearer token")
			return
		}
		if userID != "" {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next(w, r)
	}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required(next http.HandlerFunc) http.HandlerFunc {
	return a.Optional(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			CodedErrorResponse(w, http.StatusUnauthorized, "auth_required", "Authentication required")
			return
		}
		next(w, r)
	})
}
