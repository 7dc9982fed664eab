// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"github.com/danielhkuo/quickly-vote/models"
)

var (
	ErrIdentityUnavailable = errors.New("voter identity unavailable")
	ErrAddressUnavailable  = errors.New("network address unavailable")
)

// Layer names one identity signal. Order of declaration is check precedence.
type Layer string

const (
	LayerUser        Layer = "user"
	LayerFingerprint Layer = "fingerprint"
	LayerAddress     Layer = "address"
	LayerUserAgent   Layer = "user_agent"
)

// Key is a single identity layer value.
type Key struct {
	Layer Layer
	Value string
}

// Descriptor is the identity attached to a vote attempt. It is either
// Authenticated or Anonymous; no other implementations exist.
type Descriptor interface {
	// Keys returns the present layers in precedence order.
	Keys() []Key
	// Primary returns the highest-precedence layer.
	Primary() Key
	isDescriptor()
}

// Authenticated is a verified user. Anonymous layers are never attached.
type Authenticated struct {
	UserID string
}

func (a Authenticated) Keys() []Key {
	return []Key{a.Primary()}
}

func (a Authenticated) Primary() Key {
	return Key{Layer: LayerUser, Value: a.UserID}
}

func (Authenticated) isDescriptor() {}

// Anonymous is a weak three-layer identity. At least one field is set.
type Anonymous struct {
	Fingerprint    string
	NetworkAddress string
	UserAgent      string
}

func (a Anonymous) Keys() []Key {
	keys := make([]Key, 0, 3)
	if a.Fingerprint != "" {
		keys = append(keys, Key{Layer: LayerFingerprint, Value: a.Fingerprint})
	}
	if a.NetworkAddress != "" {
		keys = append(keys, Key{Layer: LayerAddress, Value: a.NetworkAddress})
	}
	if a.UserAgent != "" {
		keys = append(keys, Key{Layer: LayerUserAgent, Value: a.UserAgent})
	}
	return keys
}

func (a Anonymous) Primary() Key {
	keys := a.Keys()
	if len(keys) == 0 {
		return Key{}
	}
	return keys[0]
}

func (Anonymous) isDescriptor() {}

// IsAuthenticated reports whether d is an Authenticated descriptor.
func IsAuthenticated(d Descriptor) bool {
	_, ok := d.(Authenticated)
	return ok
}

// FromVote rebuilds the descriptor snapshot stored with a vote. The address
// layer carries the stored hash, not the raw address.
func FromVote(v models.Vote) Descriptor {
	if v.UserID != "" {
		return Authenticated{UserID: v.UserID}
	}
	return Anonymous{
		Fingerprint:    v.Fingerprint,
		NetworkAddress: v.AddressHash,
		UserAgent:      v.UserAgent,
	}
}

// Request is the raw identity context of a vote attempt.
type Request struct {
	UserID      string
	Fingerprint string
	UserAgent   string
	RemoteAddr  string
}

// AddressLookup resolves the network address of a request. Failures are
// treated as "address unavailable".
type AddressLookup interface {
	LookupAddress(ctx context.Context, req Request) (string, error)
}

// AddressLookupFunc adapts a function to AddressLookup.
type AddressLookupFunc func(ctx context.Context, req Request) (string, error)

func (f AddressLookupFunc) LookupAddress(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// TransportAddress takes the address from Request.RemoteAddr, dropping any
// port, and rejects values that are not IP addresses.
var TransportAddress = AddressLookupFunc(func(_ context.Context, req Request) (string, error) {
	raw := strings.TrimSpace(req.RemoteAddr)
	if raw == "" {
		return "", ErrAddressUnavailable
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressUnavailable, err)
	}
	return addr.Unmap().String(), nil
})

// Resolver derives a Descriptor from a Request.
type Resolver struct {
	lookup AddressLookup
}

// NewResolver returns a Resolver. A nil lookup disables the address layer.
func NewResolver(lookup AddressLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns Authenticated when a user id is present, otherwise an
// Anonymous descriptor built from whatever layers are available.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Descriptor, error) {
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		return Authenticated{UserID: userID}, nil
	}

	anon := Anonymous{
		Fingerprint: strings.TrimSpace(req.Fingerprint),
		UserAgent:   strings.TrimSpace(req.UserAgent),
	}

	var lookupErr error
	if r.lookup != nil {
		addr, err := r.lookup.LookupAddress(ctx, req)
		if err != nil {
			lookupErr = err
			slog.Warn("address lookup failed", "error", err)
		} else {
			anon.NetworkAddress = strings.TrimSpace(addr)
		}
	}

	if len(anon.Keys()) == 0 {
		if lookupErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, lookupErr)
		}
		return nil, ErrIdentityUnavailable
	}
	return anon, nil
}
