// Package servicetoken issues short-lived HS256 JWTs attached to
// gateway-to-API requests. Signing is optional: with no shared secret
// configured the gateway calls the remote API unsigned.
package servicetoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the default lifetime for outbound service tokens.
const DefaultTokenTTL = 60 * time.Second

// Signer issues outbound service JWTs signed with a shared secret.
type Signer struct {
	issuer string
	secret []byte
	ttl    time.Duration
}

// Options configures outbound service token signing.
type Options struct {
	Issuer string
	Secret string
	TTL    time.Duration
}

// NewSigner creates an HS256 signer. An empty secret is an error; callers
// that want unsigned calls simply pass a nil *Signer around.
func NewSigner(opts Options) (*Signer, error) {
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		return nil, errors.New("service token issuer is required")
	}
	secret := strings.TrimSpace(opts.Secret)
	if secret == "" {
		return nil, errors.New("service token secret is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{issuer: issuer, secret: []byte(secret), ttl: ttl}, nil
}

// Sign issues a token for the given audience.
func (s *Signer) Sign(audience string) (string, error) {
	if s == nil {
		return "", errors.New("signer is not configured")
	}
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return "", errors.New("service token audience is required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        randomHexID(12),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func randomHexID(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
