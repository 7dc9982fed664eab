// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting is the application service behind the HTTP handlers.

# Vote Flow

	resp, err := svc.CastVote(ctx, models.CastVoteRequest{PollID: id, OptionID: opt},
		identity.Request{UserID: userID, Fingerprint: fp, UserAgent: ua, RemoteAddr: addr})

CastVote looks the poll up by id or share slug, resolves the voter
descriptor, appends through the ledger (lifecycle, requireAuth, option,
duplicate guard, one transaction) and returns the vote with results
recomputed from the ledger.

# Creator Operations

SetActive, DeletePoll and Reconcile require the caller's user id to match
the poll's creator and return ErrForbidden otherwise. An empty user id
returns ErrAuthRequired.

# Timeouts

Every operation runs its store calls under Config.StoreTimeout. A deadline
surfaces as store.ErrUnavailable and nothing partial is committed.
*/
package voting
