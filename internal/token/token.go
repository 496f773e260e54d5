// Package token issues and validates the HS256 service tokens that
// authenticate callers of the audit API. Tokens carry the tenant partition
// and the acting subject; everything the log attributes to a caller comes
// from these claims.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
)

// Claims are the JWT claims carried by audit API tokens.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Actor    string `json:"actor,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a token service from the shared signing key.
func NewService(signingKey, issuer string, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a token for the tenant and acting subject.
func (s *Service) Issue(tenantID domain.TenantID, actor string) (string, error) {
	if tenantID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tenant ID cannot be empty")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token ID")
	}
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: tenantID.String(),
		Actor:    actor,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        hex.EncodeToString(b),
			Issuer:    s.issuer,
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.TenantID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is missing tenant claim")
	}
	return claims, nil
}
