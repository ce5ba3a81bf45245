// Package auth verifies bearer tokens issued by the identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed or invalid credential.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the token payload. Email identifies the principal.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a Verifier. When issuer is non-empty the iss claim must match.
func NewVerifier(secret, issuer string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

// Verify returns the verified principal email for token.
func (v *Verifier) Verify(_ context.Context, token string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: verifier has no secret", ErrUnauthorized)
	}
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return "", fmt.Errorf("%w: token has no email claim", ErrUnauthorized)
	}
	return email, nil
}

// Issue signs a token for email. It exists for local tooling and tests; the
// production issuer is the external identity provider.
func Issue(secret, issuer, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
