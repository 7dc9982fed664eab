// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger owns the append-only vote log and the counters derived
// from it.
//
// Append checks the poll lifecycle, the requireAuth flag and option
// membership, then in one store transaction reserves the voter's identity
// claims, inserts the vote and bumps the option and poll counters.
// Rebuild rewrites the counters from the log.
package ledger
