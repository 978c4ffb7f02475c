// SPDX-License-Identifier: MIT

// Package auth implements the anti-leech access controls: HMAC-signed file
// tokens, the referer domain guard, and admin session tokens.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token is a short-lived, tamper-evident credential bound to one file path.
// The signature covers "<path>:<expiresAt>" so neither part can be swapped.
type Token struct {
	Signature string // hex-encoded HMAC-SHA256
	ExpiresAt int64  // epoch milliseconds, inclusive
}

// String renders the wire form "signature:expiresAt".
func (t Token) String() string {
	return fmt.Sprintf("%s:%d", t.Signature, t.ExpiresAt)
}

// TokenService issues and validates anti-leech tokens. Both operations are
// pure computations over the shared secret; no server-side state exists, so
// an issued token stays valid until its embedded expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a token service with the given shared secret and TTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use this to pin expiry
// boundaries.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue creates a token for the given relative path, valid for the
// configured TTL.
func (s *TokenService) Issue(rel string) Token {
	expiresAt := s.now().UnixMilli() + s.ttl.Milliseconds()
	return Token{
		Signature: s.sign(rel, expiresAt),
		ExpiresAt: expiresAt,
	}
}

// Validate checks a wire-form token against the path it was requested for.
// It fails closed: malformed input, expired or tampered tokens, and tokens
// issued for a different path all return false. A token is still valid at
// exactly its expiry instant; it becomes invalid one millisecond later.
func (s *TokenService) Validate(rel, token string) bool {
	if token == "" {
		return false
	}
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return false
	}
	receivedSig, expiresStr := parts[0], parts[1]

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}
	if s.now().UnixMilli() > expiresAt {
		return false
	}

	expected := s.sign(rel, expiresAt)
	// hmac.Equal is constant-time and treats mismatched lengths as unequal.
	return hmac.Equal([]byte(receivedSig), []byte(expected))
}

func (s *TokenService) sign(rel string, expiresAt int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", rel, expiresAt)
	return hex.EncodeToString(mac.Sum(nil))
}
