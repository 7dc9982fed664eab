// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"log/slog"
	"sort"

	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/models"
)

// Compute derives results for a poll from its options and ledger.
// It reads nothing but its arguments, so it can be rerun at any time.
func Compute(options []models.Option, votes []models.Vote) models.Results {
	counts := make(map[string]int, len(options))
	for _, opt := range options {
		counts[opt.ID] = 0
	}

	total := 0
	voters := make(map[identity.Key]struct{})
	for _, v := range votes {
		if _, ok := counts[v.OptionID]; !ok {
			slog.Warn("vote references unknown option", "vote_id", v.ID, "option_id", v.OptionID)
			continue
		}
		counts[v.OptionID]++
		total++
		voters[identity.FromVote(v).Primary()] = struct{}{}
	}

	results := make([]models.OptionResult, len(options))
	for i, opt := range options {
		results[i] = models.OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Position:   opt.Position,
			Count:      counts[opt.ID],
			Percentage: percentage(counts[opt.ID], total),
		}
	}

	// Count desc, then position asc
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Position < b.Position
	})

	out := models.Results{
		Options:      results,
		TotalVotes:   total,
		UniqueVoters: len(voters),
	}
	if total > 0 {
		leading := results[0]
		out.Leading = &leading
	}
	return out
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// Drift lists stored counters on poll and options that disagree with
// results computed from the ledger.
func Drift(poll models.Poll, options []models.Option, results models.Results) []models.CounterDrift {
	drift := []models.CounterDrift{}

	if poll.TotalVotes != results.TotalVotes {
		drift = append(drift, models.CounterDrift{Field: "total_votes", Stored: poll.TotalVotes, Ledger: results.TotalVotes})
	}
	if poll.UniqueVoters != results.UniqueVoters {
		drift = append(drift, models.CounterDrift{Field: "unique_voters", Stored: poll.UniqueVoters, Ledger: results.UniqueVoters})
	}

	ledger := make(map[string]int, len(results.Options))
	for _, r := range results.Options {
		ledger[r.OptionID] = r.Count
	}
	for _, opt := range options {
		if opt.VoteCount != ledger[opt.ID] {
			drift = append(drift, models.CounterDrift{
				Field:    "vote_count",
				OptionID: opt.ID,
				Stored:   opt.VoteCount,
				Ledger:   ledger[opt.ID],
			})
		}
	}
	return drift
}

// OptionCounts maps option id to count.
func OptionCounts(results models.Results) map[string]int {
	counts := make(map[string]int, len(results.Options))
	for _, r := range results.Options {
		counts[r.OptionID] = r.Count
	}
	return counts
}
