// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package guard enforces at most one vote per identity per poll.

# Precedence

Authenticated descriptors are checked on the user layer only. Anonymous
descriptors are checked fingerprint first, then address, then user agent;
the first layer with an existing claim decides the rejection.

# Reservation

CheckAndReserve runs inside the ledger transaction. After the read check
it claims every layer of the descriptor:

	err := store.InTx(ctx, func(tx store.Tx) error {
		if err := g.CheckAndReserve(ctx, tx, pollID, d, voteID); err != nil {
			return err
		}
		return tx.InsertVote(ctx, vote)
	})

The claim rows carry a (poll, layer, hash) uniqueness constraint, so two
concurrent attempts that both pass the read check cannot both commit. The
loser gets store.ErrIdentityClaimed, which is reported as AlreadyVoted.

# Rejections

	var av *guard.AlreadyVotedError
	if errors.As(err, &av) {
		slog.Info("duplicate vote", "layer", av.Layer)
	}

errors.Is(err, guard.ErrAlreadyVoted) also matches.
*/
package guard
