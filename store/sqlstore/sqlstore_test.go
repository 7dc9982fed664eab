// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedPoll(t *testing.T, s *Store, creatorID string, labels ...string) (models.Poll, []models.Option) {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	expires := now.Add(time.Hour)
	poll := models.Poll{
		ID:         uuid.NewString(),
		Title:      "Lunch",
		CreatorID:  creatorID,
		Visibility: models.VisibilityPublic,
		ExpiresAt:  &expires,
		Active:     true,
		ShareSlug:  uuid.NewString()[:8],
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	options := make([]models.Option, len(labels))
	for i, label := range labels {
		options[i] = models.Option{ID: uuid.NewString(), PollID: poll.ID, Text: label, Position: i}
	}
	if err := s.CreatePoll(context.Background(), poll, options); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	return poll, options
}

func appendVote(ctx context.Context, s *Store, pollID, optionID string, keys ...store.IdentityKey) error {
	voteID := uuid.NewString()
	return s.InTx(ctx, func(tx store.Tx) error {
		for _, k := range keys {
			if err := tx.Claim(ctx, pollID, k, voteID); err != nil {
				return err
			}
		}
		if err := tx.InsertVote(ctx, models.Vote{
			ID: voteID, PollID: pollID, OptionID: optionID,
			Fingerprint: "fp", CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return tx.IncrementCounters(ctx, pollID, optionID)
	})
}

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect string
		in      string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM poll WHERE id = ? AND x = ?", "SELECT * FROM poll WHERE id = ? AND x = ?"},
		{DialectPostgres, "SELECT * FROM poll WHERE id = ? AND x = ?", "SELECT * FROM poll WHERE id = $1 AND x = $2"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.in, func(t *testing.T) {
			if got := rebind(tt.dialect, tt.in); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "whatever"); err == nil {
		t.Error("Expected error for unsupported dialect")
	}
	if _, err := Open(context.Background(), DialectSQLite, "  "); err == nil {
		t.Error("Expected error for empty DSN")
	}
}

func TestCreateAndGetPoll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, options := seedPoll(t, s, "creator-1", "Pizza", "Sushi", "Tacos")

	got, err := s.GetPoll(ctx, poll.ID)
	if err != nil {
		t.Fatalf("GetPoll failed: %v", err)
	}
	if got.Title != poll.Title || got.CreatorID != poll.CreatorID || !got.Active {
		t.Errorf("Unexpected poll: %+v", got)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(*poll.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, poll.ExpiresAt)
	}

	bySlug, err := s.GetPollBySlug(ctx, poll.ShareSlug)
	if err != nil {
		t.Fatalf("GetPollBySlug failed: %v", err)
	}
	if bySlug.ID != poll.ID {
		t.Errorf("GetPollBySlug returned %s, want %s", bySlug.ID, poll.ID)
	}

	gotOptions, err := s.ListOptions(ctx, poll.ID)
	if err != nil {
		t.Fatalf("ListOptions failed: %v", err)
	}
	if len(gotOptions) != len(options) {
		t.Fatalf("Expected %d options, got %d", len(options), len(gotOptions))
	}
	for i, opt := range gotOptions {
		if opt.Position != i || opt.Text != options[i].Text {
			t.Errorf("Option %d = %+v, want position %d text %q", i, opt, i, options[i].Text)
		}
	}

	if _, err := s.GetPoll(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestClaimUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, options := seedPoll(t, s, "creator-1", "A", "B")
	key := store.IdentityKey{Layer: "fingerprint", Hash: "abc"}

	if err := appendVote(ctx, s, poll.ID, options[0].ID, key); err != nil {
		t.Fatalf("First vote failed: %v", err)
	}

	err := appendVote(ctx, s, poll.ID, options[1].ID, key)
	if !errors.Is(err, store.ErrIdentityClaimed) {
		t.Fatalf("Expected ErrIdentityClaimed, got %v", err)
	}

	// The failed transaction must leave nothing behind
	votes, err := s.ListVotes(ctx, poll.ID)
	if err != nil {
		t.Fatalf("ListVotes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Errorf("Expected 1 vote, got %d", len(votes))
	}

	got, _ := s.GetPoll(ctx, poll.ID)
	if got.TotalVotes != 1 || got.UniqueVoters != 1 {
		t.Errorf("Counters = %d/%d, want 1/1", got.TotalVotes, got.UniqueVoters)
	}

	claimed, err := s.HasClaim(ctx, poll.ID, key)
	if err != nil || !claimed {
		t.Errorf("HasClaim = %v, %v; want true", claimed, err)
	}

	// Same key on another poll is independent
	other, otherOptions := seedPoll(t, s, "creator-1", "C", "D")
	if err := appendVote(ctx, s, other.ID, otherOptions[0].ID, key); err != nil {
		t.Errorf("Vote on other poll failed: %v", err)
	}
}

func TestIncrementCountersRejectsForeignOption(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, _ := seedPoll(t, s, "creator-1", "A", "B")
	_, otherOptions := seedPoll(t, s, "creator-1", "C", "D")

	err := s.InTx(ctx, func(tx store.Tx) error {
		return tx.IncrementCounters(ctx, poll.ID, otherOptions[0].ID)
	})
	if !errors.Is(err, store.ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption, got %v", err)
	}
}

func TestDeletePollCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, options := seedPoll(t, s, "creator-1", "A", "B")
	key := store.IdentityKey{Layer: "user_agent", Hash: "ua"}

	if err := appendVote(ctx, s, poll.ID, options[0].ID, key); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}
	if err := s.DeletePoll(ctx, poll.ID); err != nil {
		t.Fatalf("DeletePoll failed: %v", err)
	}

	for _, table := range []string{"poll_option", "vote", "vote_identity"} {
		var n int
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE poll_id = ?", table)
		if err := s.DB().QueryRow(q, poll.ID).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("Expected no %s rows after delete, got %d", table, n)
		}
	}

	if err := s.DeletePoll(ctx, poll.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestWriteCounters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, options := seedPoll(t, s, "creator-1", "A", "B")

	if err := appendVote(ctx, s, poll.ID, options[0].ID); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	err := s.InTx(ctx, func(tx store.Tx) error {
		return tx.WriteCounters(ctx, poll.ID, store.Counters{
			TotalVotes:   7,
			UniqueVoters: 5,
			Options:      map[string]int{options[1].ID: 7},
		})
	})
	if err != nil {
		t.Fatalf("WriteCounters failed: %v", err)
	}

	got, _ := s.GetPoll(ctx, poll.ID)
	if got.TotalVotes != 7 || got.UniqueVoters != 5 {
		t.Errorf("Counters = %d/%d, want 7/5", got.TotalVotes, got.UniqueVoters)
	}
	opts, _ := s.ListOptions(ctx, poll.ID)
	if opts[0].VoteCount != 0 || opts[1].VoteCount != 7 {
		t.Errorf("Option counts = %d/%d, want 0/7", opts[0].VoteCount, opts[1].VoteCount)
	}
}

func TestTxReads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	poll, options := seedPoll(t, s, "creator-1", "A", "B")

	if err := appendVote(ctx, s, poll.ID, options[1].ID); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	err := s.InTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockPoll(ctx, poll.ID)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, poll.ID)
		if err != nil {
			return err
		}
		opts, err := tx.ListOptions(ctx, poll.ID)
		if err != nil {
			return err
		}
		if locked.TotalVotes != 1 || len(votes) != 1 || opts[1].VoteCount != 1 {
			t.Errorf("Unexpected tx reads: total=%d votes=%d B=%d", locked.TotalVotes, len(votes), opts[1].VoteCount)
		}

		_, err = tx.LockPoll(ctx, "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing poll, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestSetActiveAndListByCreator(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first, _ := seedPoll(t, s, "creator-1", "A", "B")
	time.Sleep(5 * time.Millisecond)
	second, _ := seedPoll(t, s, "creator-1", "C", "D")
	seedPoll(t, s, "creator-2", "E", "F")

	if err := s.SetActive(ctx, first.ID, false, time.Now()); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	got, _ := s.GetPoll(ctx, first.ID)
	if got.Active {
		t.Error("Expected poll to be inactive")
	}

	polls, err := s.ListPollsByCreator(ctx, "creator-1")
	if err != nil {
		t.Fatalf("ListPollsByCreator failed: %v", err)
	}
	if len(polls) != 2 {
		t.Fatalf("Expected 2 polls, got %d", len(polls))
	}
	if polls[0].ID != second.ID {
		t.Errorf("Expected newest poll first, got %s", polls[0].ID)
	}

	if err := s.SetActive(ctx, "missing", true, time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetPoll(ctx, "anything")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}
