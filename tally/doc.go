// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally aggregates a poll's vote ledger into results.

# Results

Compute is a pure function of the options and votes:

  - Count: number of votes per option
  - Percentage: count / total * 100, 0 when there are no votes
  - UniqueVoters: distinct primary identities among the votes
  - Leading: highest count, ties broken by lowest position; nil with no votes

Options are returned sorted by count descending, position ascending.
Percentages are not rounded; they sum to 100 up to float error.

# Reconciliation

The poll and option rows carry denormalized counters. Drift compares them
with computed results:

	results := tally.Compute(options, votes)
	for _, d := range tally.Drift(poll, options, results) {
		slog.Warn("counter drift", "field", d.Field, "stored", d.Stored, "ledger", d.Ledger)
	}

The ledger is authoritative; counters are rewritten from it on rebuild.
*/
package tally
