// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		retryAfter     string
	}{
		{"driver failure", store.Unavailable("insert vote", errors.New("connection reset")), http.StatusServiceUnavailable, CodeStoreUnavailable, "1"},
		{"poll deleted mid-vote", fmt.Errorf("append: %w", store.ErrNotFound), http.StatusNotFound, CodePollNotFound, ""},
		{"poll closed mid-vote", fmt.Errorf("append: %w", lifecycle.ErrPollNotActive), http.StatusConflict, CodePollNotActive, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/polls/p1/votes", nil)
			w := httptest.NewRecorder()

			writeError(w, req, tc.err)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			testutil.AssertErrorCode(t, w, tc.expectedCode)
			if got := w.Header().Get("Retry-After"); got != tc.retryAfter {
				t.Errorf("Expected Retry-After %q, got %q", tc.retryAfter, got)
			}
		})
	}
}
