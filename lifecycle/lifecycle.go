// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"errors"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

// DefaultExpiry applies when a poll is created without an expiry.
const DefaultExpiry = 30 * 24 * time.Hour

var (
	ErrPollNotActive = errors.New("poll is not accepting votes")
	ErrExpiryInPast  = errors.New("expiry must be in the future")
)

// Evaluate returns the poll state at now. Expiry is checked lazily; a
// deactivated poll reports deactivated even after its expiry passes.
func Evaluate(p models.Poll, now time.Time) string {
	if !p.Active {
		return models.StateDeactivated
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return models.StateExpired
	}
	return models.StateActive
}

// CheckAcceptsVotes returns ErrPollNotActive unless the poll is active at now.
func CheckAcceptsVotes(p models.Poll, now time.Time) error {
	if Evaluate(p, now) != models.StateActive {
		return ErrPollNotActive
	}
	return nil
}

// ResolveExpiry applies DefaultExpiry to a missing expiry.
func ResolveExpiry(requested *time.Time, now time.Time) (time.Time, error) {
	if requested == nil {
		return now.Add(DefaultExpiry).UTC(), nil
	}
	if !requested.After(now) {
		return time.Time{}, ErrExpiryInPast
	}
	return requested.UTC(), nil
}
