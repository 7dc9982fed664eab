// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestGetResults(t *testing.T) {
	svc, _, cfg := testutil.SetupTestService(t)
	voting := NewVotingHandler(svc, cfg)
	handler := NewResultsHandler(svc)
	poll := testutil.CreateTestPoll(t, svc, "creator-1", "Pizza", "Sushi", "Tacos")

	// 3 votes for Sushi, 2 for Pizza, none for Tacos
	choices := []int{1, 0, 1, 0, 1}
	for i, choice := range choices {
		w := httptest.NewRecorder()
		voting.CastVote(w, voteRequest(poll.Poll.ID, poll.Options[choice].ID,
			fmt.Sprintf("fp-%d", i), fmt.Sprintf("198.51.100.%d:4000", i+1)))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	req := httptest.NewRequest("GET", "/polls/"+poll.Poll.ShareSlug+"/results", nil)
	req.SetPathValue("id", poll.Poll.ShareSlug)
	w := httptest.NewRecorder()

	handler.GetResults(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.PollID != poll.Poll.ID || resp.PollState != models.StateActive {
		t.Errorf("Unexpected poll header: %+v", resp)
	}
	if resp.Results.TotalVotes != 5 || resp.Results.UniqueVoters != 5 {
		t.Errorf("Expected 5 votes from 5 voters, got %d/%d", resp.Results.TotalVotes, resp.Results.UniqueVoters)
	}

	expected := []struct {
		text       string
		count      int
		percentage float64
	}{
		{"Sushi", 3, 60},
		{"Pizza", 2, 40},
		{"Tacos", 0, 0},
	}
	if len(resp.Results.Options) != len(expected) {
		t.Fatalf("Expected %d options, got %d", len(expected), len(resp.Results.Options))
	}
	for i, want := range expected {
		got := resp.Results.Options[i]
		if got.Text != want.text || got.Count != want.count || got.Percentage != want.percentage {
			t.Errorf("Option %d = %+v, want %+v", i, got, want)
		}
	}
	if resp.Results.Leading == nil || resp.Results.Leading.Text != "Sushi" {
		t.Errorf("Expected Sushi leading, got %+v", resp.Results.Leading)
	}
}

func TestGetResultsEmptyAndInactive(t *testing.T) {
	svc, _, _ := testutil.SetupTestService(t)
	handler := NewResultsHandler(svc)
	poll := testutil.CreateTestPoll(t, svc, "creator-1")

	if _, err := svc.SetActive(context.Background(), "creator-1", poll.Poll.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/polls/"+poll.Poll.ID+"/results", nil)
	req.SetPathValue("id", poll.Poll.ID)
	w := httptest.NewRecorder()

	handler.GetResults(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.PollState != models.StateDeactivated {
		t.Errorf("Expected deactivated state, got %s", resp.PollState)
	}
	if resp.Results.TotalVotes != 0 || resp.Results.Leading != nil {
		t.Errorf("Expected empty results, got %+v", resp.Results)
	}
	for _, o := range resp.Results.Options {
		if o.Percentage != 0 {
			t.Errorf("Expected 0%% for %s, got %v", o.Text, o.Percentage)
		}
	}
}

func TestReconcile(t *testing.T) {
	svc, s, cfg := testutil.SetupTestService(t)
	voting := NewVotingHandler(svc, cfg)
	handler := NewResultsHandler(svc)
	poll := testutil.CreateTestPoll(t, svc, "creator-1")

	w := httptest.NewRecorder()
	voting.CastVote(w, voteRequest(poll.Poll.ID, poll.Options[0].ID, "fp-1", "198.51.100.1:4000"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	// Corrupt the denormalized counters behind the ledger's back
	if _, err := s.DB().Exec(`UPDATE poll SET total_votes = 7 WHERE id = ?`, poll.Poll.ID); err != nil {
		t.Fatalf("Failed to corrupt counters: %v", err)
	}

	reconcile := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/polls/"+poll.Poll.ID+"/reconcile", nil)
		req.SetPathValue("id", poll.Poll.ID)
		w := httptest.NewRecorder()
		handler.Reconcile(w, asUser(req, userID))
		return w
	}

	w = reconcile("someone-else")
	testutil.AssertStatus(t, w, http.StatusForbidden)
	testutil.AssertErrorCode(t, w, CodeForbidden)

	w = reconcile("creator-1")
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ReconcileResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Drift) != 1 || resp.Drift[0].Field != "total_votes" || resp.Drift[0].Stored != 7 || resp.Drift[0].Ledger != 1 {
		t.Errorf("Unexpected drift: %+v", resp.Drift)
	}

	got, err := svc.GetPoll(context.Background(), poll.Poll.ID)
	if err != nil {
		t.Fatalf("GetPoll failed: %v", err)
	}
	if got.Poll.TotalVotes != 1 {
		t.Errorf("Expected repaired total_votes 1, got %d", got.Poll.TotalVotes)
	}

	// A second pass finds nothing
	w = reconcile("creator-1")
	testutil.AssertStatus(t, w, http.StatusOK)
	resp = models.ReconcileResponse{}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Drift) != 0 {
		t.Errorf("Expected no drift after repair, got %+v", resp.Drift)
	}
}
