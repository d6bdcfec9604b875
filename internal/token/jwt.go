// Package token implements the stateless session-token issuer/verifier
// backed by symmetric HMAC-SHA256 JWTs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// DefaultTTL is the fixed session lifetime from issuance.
const DefaultTTL = time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims embeds the registered claims plus the identity fields the
// marketplace needs to render without a user lookup.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JWT signs and verifies tokens with a shared secret.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

// NewJWT returns a token manager using the given secret. A non-positive ttl
// falls back to DefaultTTL.
func NewJWT(secret string, ttl time.Duration) ports.TokenManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token for identity, expiring ttl from now.
func (j *JWT) Issue(identity domain.Identity) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		Name:  identity.Name,
		Email: identity.Email,
	})

	signed, err := t.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the embedded
// identity. Any signature, structure or expiry problem yields
// ErrInvalidToken.
func (j *JWT) Verify(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil || !t.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
