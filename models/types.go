// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll visibility constants
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Poll state constants, evaluated lazily by the lifecycle package
const (
	StateActive      = "active"
	StateExpired     = "expired"
	StateDeactivated = "deactivated"
)

// Option count limits
const (
	MinOptions = 2
	MaxOptions = 10
)

// Request types

type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Visibility  string     `json:"visibility"`
	RequireAuth bool       `json:"require_auth"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Options     []string   `json:"options"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type CastVoteRequest struct {
	PollID      string `json:"-"`
	OptionID    string `json:"option_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Response types

type CastVoteResponse struct {
	Vote    Vote    `json:"vote"`
	Results Results `json:"results"`
}

type VoteStatusResponse struct {
	HasVoted bool   `json:"has_voted"`
	Layer    string `json:"layer,omitempty"`
}

type ResultsResponse struct {
	PollID    string  `json:"poll_id"`
	Title     string  `json:"title"`
	PollState string  `json:"poll_state"`
	Results   Results `json:"results"`
}

type ReconcileResponse struct {
	Results Results        `json:"results"`
	Drift   []CounterDrift `json:"drift"`
}

type ListPollsResponse struct {
	Polls []PollSummary `json:"polls"`
}

// Domain types

type Poll struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	CreatorID    string     `json:"creator_id"`
	Visibility   string     `json:"visibility"`
	RequireAuth  bool       `json:"require_auth"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Active       bool       `json:"active"`
	TotalVotes   int        `json:"total_votes"`
	UniqueVoters int        `json:"unique_voters"`
	ShareSlug    string     `json:"share_slug"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Option struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	Text      string `json:"text"`
	Position  int    `json:"position"` // 0-based, creation order
	VoteCount int    `json:"vote_count"`
}

type PollWithOptions struct {
	Poll    Poll     `json:"poll"`
	Options []Option `json:"options"`
	State   string   `json:"state"`
}

type PollSummary struct {
	Poll  Poll   `json:"poll"`
	State string `json:"state"`
}

// Vote is an immutable ledger entry. Only one of UserID or the anonymous
// layers is set, matching the descriptor captured at submission time.
type Vote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	OptionID    string    `json:"option_id"`
	UserID      string    `json:"-"` // Never expose in JSON
	Fingerprint string    `json:"-"`
	AddressHash string    `json:"-"`
	UserAgent   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Aggregation types

type OptionResult struct {
	OptionID   string  `json:"option_id"`
	Text       string  `json:"text"`
	Position   int     `json:"position"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Results struct {
	Options      []OptionResult `json:"options"` // count desc, position asc
	TotalVotes   int            `json:"total_votes"`
	UniqueVoters int            `json:"unique_voters"`
	Leading      *OptionResult  `json:"leading,omitempty"`
}

// CounterDrift describes a denormalized counter that disagrees with the ledger.
type CounterDrift struct {
	Field    string `json:"field"`
	OptionID string `json:"option_id,omitempty"`
	Stored   int    `json:"stored"`
	Ledger   int    `json:"ledger"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
