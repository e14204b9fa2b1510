// Package token issues and verifies the signed session tokens that gate
// protected endpoints. Tokens are HS256 JWTs whose subject is the account id.
// A cryptographically valid token is not sufficient for access on its own:
// the account service additionally compares it against the account's current
// session marker, which is how logging in elsewhere revokes older tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for any token that fails parsing, signature
// verification, or expiry checks. Callers don't need to distinguish why.
var ErrInvalid = errors.New("token: invalid or expired")

// Issuer signs and verifies session tokens with a single symmetric key.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer with the given signing secret and token
// lifetime. The secret comes from configuration, never read ad hoc.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given subject (account id). Every
// token carries a random jti: claims alone would make two tokens issued
// within the same second byte-identical, and the session marker comparison
// needs successive logins to produce distinct tokens.
func (i *Issuer) Issue(subjectID string) (string, error) {
	jti := make([]byte, 8)
	if _, err := rand.Read(jti); err != nil {
		return "", err
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        hex.EncodeToString(jti),
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	})

	return tok.SignedString(i.secret)
}

// Verify checks the token's signature and expiry and returns its subject.
// Any failure collapses to ErrInvalid so callers can't leak parse details.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalid
	}
	if claims.Subject == "" {
		return "", ErrInvalid
	}

	return claims.Subject, nil
}
