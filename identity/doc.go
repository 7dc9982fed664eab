// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity resolves who is casting a vote.

# Descriptors

A Descriptor is one of two variants:

  - Authenticated{UserID}: the requester presented a verified token
  - Anonymous{Fingerprint, NetworkAddress, UserAgent}: weak layered identity

An authenticated user id always wins. When it is present no anonymous
layer is collected, so a logged-in voter never inherits (or is blocked
by) a vote cast from the same browser before login.

# Layers

Layers are checked in a fixed order:

	user → fingerprint → address → user_agent

Keys returns the present layers in that order and Primary returns the
first one. The user agent alone is a low-confidence signal; shared
networks and browsers may be rejected as duplicates.

# Resolution

	resolver := identity.NewResolver(identity.TransportAddress)
	d, err := resolver.Resolve(ctx, identity.Request{...})

Address lookup is a collaborator. A failing lookup only removes the
address layer; Resolve returns ErrIdentityUnavailable when no layer is
left.
*/
package identity
