package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClearCacheAction is the action the clear-cache token is bound to
const ClearCacheAction = "psc-clear-cache"

// DefaultNonceTTL is how long an issued token stays valid
const DefaultNonceTTL = 24 * time.Hour

type nonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// NonceIssuer creates and verifies anti-forgery tokens bound to an action
type NonceIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonceIssuer(secret string, ttl time.Duration) (*NonceIssuer, error) {
	if secret == "" {
		return nil, errors.New("nonce secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	return &NonceIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source, for tests
func (n *NonceIssuer) WithClock(now func() time.Time) *NonceIssuer {
	n.now = now
	return n
}

// Create issues a signed token for action
func (n *NonceIssuer) Create(action string) (string, error) {
	issuedAt := n.now()
	claims := nonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(n.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}
	return token, nil
}

// Verify reports whether token is a valid, unexpired token for action
func (n *NonceIssuer) Verify(token, action string) bool {
	if n == nil || token == "" {
		return false
	}

	var claims nonceClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return n.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(n.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims.Action == action
}
