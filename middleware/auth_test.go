// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-jwt-secret"

func bearer(t *testing.T, subject, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + signed
}

func TestAuthenticator(t *testing.T) {
	a := NewAuthenticator(testSecret)

	testCases := []struct {
		name           string
		required       bool
		header         string
		expectedStatus int
		expectedUser   string
	}{
		{"optional anonymous", false, "", http.StatusOK, ""},
		{"optional valid token", false, bearer(t, "user-1", testSecret), http.StatusOK, "user-1"},
		{"optional bad token", false, bearer(t, "user-1", "wrong-secret"), http.StatusUnauthorized, ""},
		{"optional malformed header", false, "Basic abc", http.StatusUnauthorized, ""},
		{"required anonymous", true, "", http.StatusUnauthorized, ""},
		{"required valid token", true, bearer(t, "user-2", testSecret), http.StatusOK, "user-2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seenUser string
			next := func(w http.ResponseWriter, r *http.Request) {
				seenUser = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}

			handler := a.Optional(next)
			if tc.required {
				handler = a.Required(next)
			}

			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, w.Code)
			}
			if seenUser != tc.expectedUser {
				t.Errorf("Expected user %q, got %q", tc.expectedUser, seenUser)
			}
		})
	}
}
