// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store/sqlstore"
	"github.com/danielhkuo/quickly-vote/voting"
)

// SetupTestStore creates a fresh SQLite database with the full schema in
// the test's temp directory
func SetupTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "quickly-vote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: cliparse.DatabaseSQLite,
		IdentitySalt: "test-identity-salt",
		PollSlugSalt: "test-slug-salt",
		JWTSecret:    "test-jwt-secret",
		StoreTimeout: 5 * time.Second,
	}
}

// SetupTestService returns a voting service over a fresh SQLite store
func SetupTestService(t *testing.T) (*voting.Service, *sqlstore.Store, cliparse.Config) {
	t.Helper()

	s := SetupTestStore(t)
	cfg := GetTestConfig()
	return voting.New(s, cfg), s, cfg
}

// BearerToken mints a bearer header value for userID signed with the test secret
func BearerToken(t *testing.T, cfg cliparse.Config, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return "Bearer " + signed
}

// CreateTestPoll creates an active poll owned by creatorID with the given options
func CreateTestPoll(t *testing.T, svc *voting.Service, creatorID string, options ...string) models.PollWithOptions {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	poll, err := svc.CreatePoll(context.Background(), creatorID, models.CreatePollRequest{
		Title:       "Test Poll",
		Description: "A test poll",
		Options:     options,
	})
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return poll
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertErrorCode decodes an error response and checks its machine code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != code {
		t.Errorf("Expected error code %q, got %q (%s)", code, resp.Code, resp.Message)
	}
}
