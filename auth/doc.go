// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token verification and hashing utilities.

# User Tokens

Sessions are issued by an external service. This package only verifies
HS256 bearer tokens and returns the subject claim as the user id:

	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	userID, err := auth.VerifyUserToken(token, secret)

Tokens must carry an exp claim. Any parse or signature failure is
reported as ErrInvalidToken.

# Identity Hashing

Duplicate-vote keys are never stored in the clear:

	key := auth.HashIdentity("fingerprint", fp, salt)

The layer name is part of the MAC input, so the same value on two
layers yields two unrelated keys. HashIP returns a shortened address hash
for the vote row itself.

# Share Slugs

Share slugs create URL-friendly identifiers for polls:

	slug := auth.GenerateShareSlug(pollID, salt)

Slugs are base62 encoded (alphanumeric only) for easy sharing. They're
deterministic from the poll ID and salt.
*/
package auth
