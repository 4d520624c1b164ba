package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/terrena-pm/terrena/internal/tenant"
)

// BearerScheme is the fixed prefix expected on the Authorization header.
const BearerScheme = "Bearer "

var (
	// ErrMissingCredential indicates the Authorization header was absent or
	// did not carry the bearer scheme.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrInvalidCredential indicates signature or expiry verification failed.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Claims are the fields embedded in a signed credential.
type Claims struct {
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
	Tenant string `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs credentials for authenticated actors.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a credential for the given actor record.
func (i *TokenIssuer) Issue(actor *ActorRecord, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role:   strings.ToLower(actor.Role),
		Status: strings.ToLower(actor.Status),
		Tenant: tenant.Normalize(actor.Tenant),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ExtractBearer pulls the raw credential out of an Authorization header
// value. Returns ErrMissingCredential when the scheme marker is absent.
func ExtractBearer(header string) (string, error) {
	if len(header) <= len(BearerScheme) || !strings.EqualFold(header[:len(BearerScheme)], BearerScheme) {
		return "", ErrMissingCredential
	}
	raw := strings.TrimSpace(header[len(BearerScheme):])
	if raw == "" {
		return "", ErrMissingCredential
	}
	return raw, nil
}

// VerifyToken validates signature and expiry against the server secret and
// returns the normalized claims.
func VerifyToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}
	claims.Role = strings.ToLower(strings.TrimSpace(claims.Role))
	claims.Status = strings.ToLower(strings.TrimSpace(claims.Status))
	claims.Tenant = tenant.Normalize(claims.Tenant)
	return claims, nil
}
