// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
)

type claimKey struct {
	pollID string
	layer  string
	hash   string
}

type Store struct {
	mu      sync.Mutex
	polls   map[string]*models.Poll
	options map[string][]*models.Option // poll id -> options by position
	votes   map[string][]models.Vote    // poll id -> ledger
	claims  map[claimKey]string         // -> vote id
}

// New initializes an empty store.
func New() *Store {
	return &Store{
		polls:   make(map[string]*models.Poll),
		options: make(map[string][]*models.Option),
		votes:   make(map[string][]models.Vote),
		claims:  make(map[claimKey]string),
	}
}

func checkCtx(ctx context.Context, op string) error {
	return store.Unavailable(op, ctx.Err())
}

func (s *Store) CreatePoll(ctx context.Context, poll models.Poll, options []models.Option) error {
	if err := checkCtx(ctx, "create poll"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.polls[poll.ID]; exists {
		return fmt.Errorf("poll with ID %s already exists", poll.ID)
	}
	for _, p := range s.polls {
		if p.ShareSlug == poll.ShareSlug {
			return fmt.Errorf("share slug %s already exists", poll.ShareSlug)
		}
	}

	p := poll
	p.TotalVotes, p.UniqueVoters = 0, 0
	s.polls[p.ID] = &p

	opts := make([]*models.Option, 0, len(options))
	for _, o := range options {
		opt := o
		opt.PollID = p.ID
		opt.VoteCount = 0
		opts = append(opts, &opt)
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Position < opts[j].Position })
	s.options[p.ID] = opts
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	if err := checkCtx(ctx, "get poll"); err != nil {
		return models.Poll{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[id]
	if !ok {
		return models.Poll{}, store.ErrNotFound
	}
	return *p, nil
}

func (s *Store) GetPollBySlug(ctx context.Context, slug string) (models.Poll, error) {
	if err := checkCtx(ctx, "get poll by slug"); err != nil {
		return models.Poll{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.polls {
		if p.ShareSlug == slug {
			return *p, nil
		}
	}
	return models.Poll{}, store.ErrNotFound
}

func (s *Store) ListOptions(ctx context.Context, pollID string) ([]models.Option, error) {
	if err := checkCtx(ctx, "list options"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := []models.Option{}
	for _, o := range s.options[pollID] {
		list = append(list, *o)
	}
	return list, nil
}

func (s *Store) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	if err := checkCtx(ctx, "list votes"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Vote{}, s.votes[pollID]...), nil
}

func (s *Store) ListPollsByCreator(ctx context.Context, creatorID string) ([]models.Poll, error) {
	if err := checkCtx(ctx, "list polls"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := []models.Poll{}
	for _, p := range s.polls {
		if p.CreatorID == creatorID {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *Store) SetActive(ctx context.Context, pollID string, active bool, at time.Time) error {
	if err := checkCtx(ctx, "set active"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return store.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = at.UTC()
	return nil
}

func (s *Store) DeletePoll(ctx context.Context, pollID string) error {
	if err := checkCtx(ctx, "delete poll"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[pollID]; !ok {
		return store.ErrNotFound
	}
	for k := range s.claims {
		if k.pollID == pollID {
			delete(s.claims, k)
		}
	}
	delete(s.votes, pollID)
	delete(s.options, pollID)
	delete(s.polls, pollID)
	return nil
}

func (s *Store) HasClaim(ctx context.Context, pollID string, key store.IdentityKey) (bool, error) {
	if err := checkCtx(ctx, "find claim"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.claims[claimKey{pollID, key.Layer, key.Hash}]
	return ok, nil
}

// InTx holds the store lock for the whole of fn and applies the staged
// changes only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := checkCtx(ctx, "begin tx"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, claims: make(map[claimKey]string), counters: make(map[string]*store.Counters)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := checkCtx(ctx, "commit tx"); err != nil {
		return err
	}
	tx.apply()
	return nil
}

func (s *Store) Close() error {
	return nil
}

// memTx stages writes; the parent store is only read until apply.
// Counter changes are staged as a full snapshot per poll.
type memTx struct {
	s        *Store
	claims   map[claimKey]string
	votes    []models.Vote
	counters map[string]*store.Counters // poll id -> staged counters
}

// staged returns the poll's counters as this transaction sees them.
func (t *memTx) staged(pollID string) (*store.Counters, error) {
	if c, ok := t.counters[pollID]; ok {
		return c, nil
	}
	p, ok := t.s.polls[pollID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := &store.Counters{
		TotalVotes:   p.TotalVotes,
		UniqueVoters: p.UniqueVoters,
		Options:      make(map[string]int),
	}
	for _, o := range t.s.options[pollID] {
		c.Options[o.ID] = o.VoteCount
	}
	t.counters[pollID] = c
	return c, nil
}

// LockPoll needs no extra locking: InTx already holds the store mutex.
func (t *memTx) LockPoll(ctx context.Context, pollID string) (models.Poll, error) {
	p, ok := t.s.polls[pollID]
	if !ok {
		return models.Poll{}, store.ErrNotFound
	}
	poll := *p
	if c, ok := t.counters[pollID]; ok {
		poll.TotalVotes, poll.UniqueVoters = c.TotalVotes, c.UniqueVoters
	}
	return poll, nil
}

func (t *memTx) ListOptions(ctx context.Context, pollID string) ([]models.Option, error) {
	c := t.counters[pollID]
	list := []models.Option{}
	for _, o := range t.s.options[pollID] {
		opt := *o
		if c != nil {
			opt.VoteCount = c.Options[o.ID]
		}
		list = append(list, opt)
	}
	return list, nil
}

func (t *memTx) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	votes := append([]models.Vote{}, t.s.votes[pollID]...)
	for _, v := range t.votes {
		if v.PollID == pollID {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

func (t *memTx) WriteCounters(ctx context.Context, pollID string, c store.Counters) error {
	if _, ok := t.s.polls[pollID]; !ok {
		return store.ErrNotFound
	}
	staged := &store.Counters{
		TotalVotes:   c.TotalVotes,
		UniqueVoters: c.UniqueVoters,
		Options:      make(map[string]int),
	}
	for _, o := range t.s.options[pollID] {
		staged.Options[o.ID] = c.Options[o.ID]
	}
	t.counters[pollID] = staged
	return nil
}

func (t *memTx) HasClaim(ctx context.Context, pollID string, key store.IdentityKey) (bool, error) {
	k := claimKey{pollID, key.Layer, key.Hash}
	if _, ok := t.claims[k]; ok {
		return true, nil
	}
	_, ok := t.s.claims[k]
	return ok, nil
}

func (t *memTx) Claim(ctx context.Context, pollID string, key store.IdentityKey, voteID string) error {
	if taken, _ := t.HasClaim(ctx, pollID, key); taken {
		return store.ErrIdentityClaimed
	}
	t.claims[claimKey{pollID, key.Layer, key.Hash}] = voteID
	return nil
}

func (t *memTx) InsertVote(ctx context.Context, v models.Vote) error {
	if _, ok := t.s.polls[v.PollID]; !ok {
		return store.ErrNotFound
	}
	if v.UserID != "" {
		for _, existing := range t.s.votes[v.PollID] {
			if existing.UserID == v.UserID {
				return store.ErrIdentityClaimed
			}
		}
	}
	t.votes = append(t.votes, v)
	return nil
}

func (t *memTx) IncrementCounters(ctx context.Context, pollID, optionID string) error {
	c, err := t.staged(pollID)
	if err != nil {
		return err
	}
	if _, ok := c.Options[optionID]; !ok {
		return store.ErrInvalidOption
	}
	c.Options[optionID]++
	c.TotalVotes++
	c.UniqueVoters++
	return nil
}

func (t *memTx) apply() {
	for k, voteID := range t.claims {
		t.s.claims[k] = voteID
	}
	for _, v := range t.votes {
		t.s.votes[v.PollID] = append(t.s.votes[v.PollID], v)
	}
	for pollID, c := range t.counters {
		p := t.s.polls[pollID]
		p.TotalVotes = c.TotalVotes
		p.UniqueVoters = c.UniqueVoters
		for _, o := range t.s.options[pollID] {
			o.VoteCount = c.Options[o.ID]
		}
	}
}

var _ store.Store = (*Store)(nil)
