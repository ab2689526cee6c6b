// Package auth verifies the identity credential a connection presents before
// it is admitted to the real-time channel. Tokens are HS256 JWTs whose
// subject is the user identifier; this package only verifies — issuing login
// tokens is a separate system's job (Issue exists for tests and tooling).
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, malformed, expired, or
// wrongly-signed credentials. The caller must reject the connection before
// any registry state is created.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier validates a credential and yields the user identifier it asserts.
type Verifier interface {
	Verify(token string) (userID string, err error)
}

// HMACVerifier verifies HS256-signed tokens with a shared secret.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier constructs a Verifier for the given shared secret.
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns its subject.
func (v *HMACVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	tok, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Issue signs a token for userID with the given ttl. Used by tests and local
// tooling; production tokens come from the login service.
func (v *HMACVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
