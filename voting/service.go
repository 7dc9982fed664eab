// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/guard"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/tally"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxOptionLength      = 200
)

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrForbidden      = errors.New("only the poll creator may do this")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAuthRequired   = ledger.ErrAuthRequired
)

// Service composes identity resolution, the duplicate guard, the ledger and
// the aggregator behind the operations the HTTP layer exposes.
type Service struct {
	store    store.Store
	cfg      cliparse.Config
	resolver *identity.Resolver
	guard    *guard.Guard
	ledger   *ledger.Ledger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	lookup identity.AddressLookup
	now    func() time.Time
}

// WithAddressLookup replaces the transport address lookup.
func WithAddressLookup(lookup identity.AddressLookup) Option {
	return func(o *serviceOptions) { o.lookup = lookup }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// New wires a Service over s.
func New(s store.Store, cfg cliparse.Config, opts ...Option) *Service {
	o := serviceOptions{lookup: identity.TransportAddress, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	g := guard.New(s, cfg.IdentitySalt)
	return &Service{
		store:    s,
		cfg:      cfg,
		resolver: identity.NewResolver(o.lookup),
		guard:    g,
		ledger:   ledger.New(s, g, cfg.IdentitySalt).WithClock(o.now),
		now:      o.now,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// findPoll accepts a poll id or a share slug.
func (s *Service) findPoll(ctx context.Context, idOrSlug string) (models.Poll, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return models.Poll{}, ErrPollNotFound
	}

	poll, err := s.store.GetPoll(ctx, idOrSlug)
	if errors.Is(err, store.ErrNotFound) {
		poll, err = s.store.GetPollBySlug(ctx, idOrSlug)
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.Poll{}, ErrPollNotFound
	}
	return poll, err
}

// CreatePoll validates req and stores the poll with its options.
func (s *Service) CreatePoll(ctx context.Context, creatorID string, req models.CreatePollRequest) (models.PollWithOptions, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return models.PollWithOptions{}, ErrAuthRequired
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.PollWithOptions{}, invalid("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return models.PollWithOptions{}, invalid("title must be at most %d characters", MaxTitleLength)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return models.PollWithOptions{}, invalid("description must be at most %d characters", MaxDescriptionLength)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityPrivate {
		return models.PollWithOptions{}, invalid("visibility must be public or private")
	}

	if len(req.Options) < models.MinOptions || len(req.Options) > models.MaxOptions {
		return models.PollWithOptions{}, invalid("a poll needs %d to %d options", models.MinOptions, models.MaxOptions)
	}

	now := s.now().UTC()
	expiresAt, err := lifecycle.ResolveExpiry(req.ExpiresAt, now)
	if err != nil {
		return models.PollWithOptions{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	pollID := uuid.NewString()
	poll := models.Poll{
		ID:          pollID,
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		Visibility:  visibility,
		RequireAuth: req.RequireAuth,
		ExpiresAt:   &expiresAt,
		Active:      true,
		ShareSlug:   auth.GenerateShareSlug(pollID, s.cfg.PollSlugSalt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	options := make([]models.Option, len(req.Options))
	for i, text := range req.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return models.PollWithOptions{}, invalid("option %d is empty", i+1)
		}
		if utf8.RuneCountInString(text) > MaxOptionLength {
			return models.PollWithOptions{}, invalid("option %d must be at most %d characters", i+1, MaxOptionLength)
		}
		options[i] = models.Option{
			ID:       uuid.NewString(),
			PollID:   pollID,
			Text:     text,
			Position: i,
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.CreatePoll(ctx, poll, options); err != nil {
		return models.PollWithOptions{}, err
	}

	slog.Info("poll created", "poll_id", pollID, "creator_id", creatorID, "options", len(options))

	return models.PollWithOptions{
		Poll:    poll,
		Options: options,
		State:   lifecycle.Evaluate(poll, now),
	}, nil
}

// GetPoll returns a poll, its options and its current state.
func (s *Service) GetPoll(ctx context.Context, idOrSlug string) (models.PollWithOptions, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.findPoll(ctx, idOrSlug)
	if err != nil {
		return models.PollWithOptions{}, err
	}
	options, err := s.store.ListOptions(ctx, poll.ID)
	if err != nil {
		return models.PollWithOptions{}, err
	}

	return models.PollWithOptions{
		Poll:    poll,
		Options: options,
		State:   lifecycle.Evaluate(poll, s.now()),
	}, nil
}

// CastVote resolves the voter, appends the vote and returns the recomputed
// results.
func (s *Service) CastVote(ctx context.Context, req models.CastVoteRequest, who identity.Request) (models.CastVoteResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.findPoll(ctx, req.PollID)
	if err != nil {
		return models.CastVoteResponse{}, err
	}

	if who.Fingerprint == "" {
		who.Fingerprint = req.Fingerprint
	}
	d, err := s.resolver.Resolve(ctx, who)
	if err != nil {
		return models.CastVoteResponse{}, err
	}

	vote, err := s.ledger.Append(ctx, poll, strings.TrimSpace(req.OptionID), d)
	if err != nil {
		return models.CastVoteResponse{}, err
	}

	results, _, err := s.ledger.Results(ctx, poll.ID)
	if err != nil {
		return models.CastVoteResponse{}, err
	}

	return models.CastVoteResponse{Vote: vote, Results: results}, nil
}

// VoteStatus reports whether the requester has already voted on the poll.
func (s *Service) VoteStatus(ctx context.Context, idOrSlug string, who identity.Request) (models.VoteStatusResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.findPoll(ctx, idOrSlug)
	if err != nil {
		return models.VoteStatusResponse{}, err
	}
	d, err := s.resolver.Resolve(ctx, who)
	if err != nil {
		return models.VoteStatusResponse{}, err
	}

	m, err := s.guard.HasVoted(ctx, poll.ID, d)
	if err != nil {
		return models.VoteStatusResponse{}, err
	}
	return models.VoteStatusResponse{HasVoted: m.Voted, Layer: string(m.Layer)}, nil
}

// Results computes results from the ledger. Results are readable in every
// poll state. Disagreement with the stored counters is logged, not
// repaired; Reconcile repairs it.
func (s *Service) Results(ctx context.Context, idOrSlug string) (models.ResultsResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.findPoll(ctx, idOrSlug)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	results, options, err := s.ledger.Results(ctx, poll.ID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	if drift := tally.Drift(poll, options, results); len(drift) > 0 {
		slog.Warn("stored counters drifted from ledger", "poll_id", poll.ID, "fields", len(drift))
	}

	return models.ResultsResponse{
		PollID:    poll.ID,
		Title:     poll.Title,
		PollState: lifecycle.Evaluate(poll, s.now()),
		Results:   results,
	}, nil
}

// creatorPoll loads a poll and checks that userID created it.
func (s *Service) creatorPoll(ctx context.Context, userID, idOrSlug string) (models.Poll, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Poll{}, ErrAuthRequired
	}
	poll, err := s.findPoll(ctx, idOrSlug)
	if err != nil {
		return models.Poll{}, err
	}
	if poll.CreatorID != userID {
		return models.Poll{}, ErrForbidden
	}
	return poll, nil
}

// SetActive activates or deactivates a poll. Creator only.
func (s *Service) SetActive(ctx context.Context, userID, idOrSlug string, active bool) (models.PollWithOptions, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.creatorPoll(ctx, userID, idOrSlug)
	if err != nil {
		return models.PollWithOptions{}, err
	}

	now := s.now().UTC()
	if err := s.store.SetActive(ctx, poll.ID, active, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.PollWithOptions{}, ErrPollNotFound
		}
		return models.PollWithOptions{}, err
	}
	poll.Active = active
	poll.UpdatedAt = now

	options, err := s.store.ListOptions(ctx, poll.ID)
	if err != nil {
		return models.PollWithOptions{}, err
	}

	slog.Info("poll active flag changed", "poll_id", poll.ID, "active", active)

	return models.PollWithOptions{
		Poll:    poll,
		Options: options,
		State:   lifecycle.Evaluate(poll, now),
	}, nil
}

// DeletePoll removes a poll with its options, votes and claims. Creator only.
func (s *Service) DeletePoll(ctx context.Context, userID, idOrSlug string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.creatorPoll(ctx, userID, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.store.DeletePoll(ctx, poll.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPollNotFound
		}
		return err
	}

	slog.Info("poll deleted", "poll_id", poll.ID)
	return nil
}

// ListCreatorPolls returns the polls created by userID, newest first.
func (s *Service) ListCreatorPolls(ctx context.Context, userID string) ([]models.PollSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrAuthRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	polls, err := s.store.ListPollsByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]models.PollSummary, len(polls))
	for i, p := range polls {
		summaries[i] = models.PollSummary{Poll: p, State: lifecycle.Evaluate(p, now)}
	}
	return summaries, nil
}

// Reconcile rewrites the poll's counters from the ledger. Creator only.
func (s *Service) Reconcile(ctx context.Context, userID, idOrSlug string) (models.ReconcileResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	poll, err := s.creatorPoll(ctx, userID, idOrSlug)
	if err != nil {
		return models.ReconcileResponse{}, err
	}

	results, drift, err := s.ledger.Rebuild(ctx, poll.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ReconcileResponse{}, ErrPollNotFound
		}
		return models.ReconcileResponse{}, err
	}
	return models.ReconcileResponse{Results: results, Drift: drift}, nil
}
