// Package token issues and verifies owner access tokens. Tokens are HS256
// JWTs whose subject is the owner's hex id.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrNoSigningKey = errors.New("session signing key is not configured")
)

type Claims struct {
	OwnerID   oid.ID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewManager(cfg config.Config, clk clock.Clock) *Manager {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(cfg.SessionSigningKey),
		issuer: cfg.AppName,
		ttl:    ttl,
		clock:  clk,
	}
}

// Issue signs a token for ownerID valid for the configured TTL.
func (m *Manager) Issue(ownerID oid.ID) (string, Claims, error) {
	if len(m.secret) == 0 {
		return "", Claims{}, ErrNoSigningKey
	}
	now := m.clock.Now().UTC().Truncate(time.Second)
	rc := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   ownerID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, Claims{
		OwnerID:   ownerID,
		TokenID:   rc.ID,
		IssuedAt:  now,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// Verify checks signature, algorithm and expiry and returns the owner claims.
// Every failure is reported as ErrInvalidToken.
func (m *Manager) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(m.secret) == 0 {
		return Claims{}, ErrInvalidToken
	}

	var rc jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	tkn, err := parser.ParseWithClaims(raw, &rc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return Claims{}, ErrInvalidToken
	}
	if m.issuer != "" && rc.Issuer != "" && rc.Issuer != m.issuer {
		return Claims{}, ErrInvalidToken
	}

	ownerID, err := oid.Parse(rc.Subject)
	if err != nil || ownerID.IsZero() {
		return Claims{}, ErrInvalidToken
	}
	out := Claims{OwnerID: ownerID, TokenID: rc.ID}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	return out, nil
}
