// SPDX-License-Identifier: MIT

package auth

import (
	"crypto/md5" // #nosec G501 -- legacy wire format: clients send md5(password)
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionService issues and verifies the JWT bearer tokens used by the admin
// UI. Media playback does not use these; they only guard non-public routes.
type SessionService struct {
	secret   []byte
	ttl      time.Duration
	username string
	password string
}

// NewSessionService builds a session service for the single configured admin
// account.
func NewSessionService(secret, username, password string, ttl time.Duration) *SessionService {
	return &SessionService{
		secret:   []byte(secret),
		ttl:      ttl,
		username: username,
		password: password,
	}
}

// CheckCredentials verifies a login attempt. The client sends the md5 hex
// digest of the password rather than the cleartext; both comparisons are
// constant-time.
func (s *SessionService) CheckCredentials(username, passwordMD5 string) bool {
	sum := md5.Sum([]byte(s.password)) // #nosec G401 -- see package comment on the login wire format
	expected := hex.EncodeToString(sum[:])

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(passwordMD5), []byte(expected)) == 1
	return userOK && passOK
}

// IssueSession creates a signed JWT for the given username, expiring after
// the configured TTL.
func (s *SessionService) IssueSession(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifySession parses and validates a JWT, returning the embedded username.
func (s *SessionService) VerifySession(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, nil
}
