// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateShareSlug(t *testing.T) {
	tests := []struct {
		name   string
		pollID string
		salt   string
	}{
		{"standard", "poll-abc-123", "slug-salt"},
		{"different poll", "poll-xyz-456", "slug-salt"},
		{"different salt", "poll-abc-123", "other-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug := GenerateShareSlug(tt.pollID, tt.salt)

			// Should not be empty
			if slug == "" {
				t.Error("GenerateShareSlug() returned empty string")
			}

			// Should be deterministic
			slug2 := GenerateShareSlug(tt.pollID, tt.salt)
			if slug != slug2 {
				t.Error("GenerateShareSlug() is not deterministic")
			}

			// Should be reasonably short
			if len(slug) > 15 {
				t.Errorf("GenerateShareSlug() too long: %d chars", len(slug))
			}

			// Should be URL-safe (alphanumeric only)
			for _, c := range slug {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
					t.Errorf("GenerateShareSlug() contains non-alphanumeric char: %c", c)
				}
			}
		})
	}

	// Different inputs should produce different slugs
	slug1 := GenerateShareSlug("poll1", "salt")
	slug2 := GenerateShareSlug("poll2", "salt")
	if slug1 == slug2 {
		t.Error("GenerateShareSlug() produced same slug for different poll IDs")
	}

	slug3 := GenerateShareSlug("poll1", "salt1")
	slug4 := GenerateShareSlug("poll1", "salt2")
	if slug3 == slug4 {
		t.Error("GenerateShareSlug() produced same slug for different salts")
	}
}

func TestBase62Encode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"zero bytes", []byte{0, 0, 0, 0}},
		{"small value", []byte{0, 0, 0, 1}},
		{"large value", []byte{255, 255, 255, 255, 255, 255, 255, 255}},
		{"mixed value", []byte{42, 123, 200, 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := base62Encode(tt.input)

			// Should not be empty (except for all zeros -> "0")
			if result == "" {
				t.Error("base62Encode() returned empty string")
			}

			// Should only contain base62 characters
			for _, c := range result {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
					t.Errorf("base62Encode() contains invalid char: %c", c)
				}
			}

			// Should be deterministic
			result2 := base62Encode(tt.input)
			if result != result2 {
				t.Error("base62Encode() is not deterministic")
			}
		})
	}

	// Different inputs should produce different outputs
	out1 := base62Encode([]byte{1, 2, 3, 4})
	out2 := base62Encode([]byte{5, 6, 7, 8})
	if out1 == out2 {
		t.Error("base62Encode() produced same output for different inputs")
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should not be empty
			if hash == "" {
				t.Error("HashIP() returned empty string")
			}

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			// Should be valid hex
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			// Should be deterministic
			hash2 := HashIP(tt.ip, tt.salt)
			if hash != hash2 {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	// Different IPs should produce different hashes
	hash1 := HashIP("192.168.1.1", "salt")
	hash2 := HashIP("192.168.1.2", "salt")
	if hash1 == hash2 {
		t.Error("HashIP() produced same hash for different IPs")
	}

	// Different salts should produce different hashes
	hash3 := HashIP("192.168.1.1", "salt1")
	hash4 := HashIP("192.168.1.1", "salt2")
	if hash3 == hash4 {
		t.Error("HashIP() produced same hash for different salts")
	}
}

func TestHashIdentity(t *testing.T) {
	a := HashIdentity("fingerprint", "value", "salt")
	if len(a) != 64 {
		t.Errorf("HashIdentity() length = %d, want 64", len(a))
	}
	if a != HashIdentity("fingerprint", "value", "salt") {
		t.Error("HashIdentity() is not deterministic")
	}
	if a == HashIdentity("user_agent", "value", "salt") {
		t.Error("HashIdentity() produced same hash for different layers")
	}
	if a == HashIdentity("fingerprint", "value", "other-salt") {
		t.Error("HashIdentity() produced same hash for different salts")
	}
	if strings.Contains(a, "value") {
		t.Error("HashIdentity() leaked the raw value")
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestVerifyUserToken(t *testing.T) {
	secret := "jwt-secret"
	valid := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{"valid token", signToken(t, jwt.SigningMethodHS256, secret, valid), "user-1", nil},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, "other", valid), "", ErrInvalidToken},
		{"wrong algorithm", signToken(t, jwt.SigningMethodHS512, secret, valid), "", ErrInvalidToken},
		{"expired", signToken(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}), "", ErrInvalidToken},
		{"no expiry", signToken(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "user-1"}), "", ErrInvalidToken},
		{"no subject", signToken(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}), "", ErrInvalidToken},
		{"garbage", "not.a.token", "", ErrInvalidToken},
		{"empty", "", "", ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyUserToken(tt.token, secret)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("VerifyUserToken() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("VerifyUserToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
		{"", "", ErrMissingToken},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("BearerToken(%q) error = %v, want %v", tt.header, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

// Benchmark tests
func BenchmarkGenerateShareSlug(b *testing.B) {
	pollID := "test-poll-123"
	salt := "slug-salt"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateShareSlug(pollID, salt)
	}
}

func BenchmarkHashIdentity(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashIdentity("fingerprint", "fp-123", "salt")
	}
}
