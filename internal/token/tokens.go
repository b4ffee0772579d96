// Package token issues and validates signed bearer session tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userdomain "session-service/internal/user/domain"
)

// Claims is the signed claim set carried by every session token.
type Claims struct {
	jwt.RegisteredClaims
	// RememberMe records which expiry window was selected at issuance so
	// downstream consumers can distinguish the session class.
	RememberMe bool `json:"remember_me"`
}

// UserDirectory resolves token subjects to user records. Injected so the
// token layer is testable without a real store.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
}

// RevocationChecker answers point lookups against the revoked-token store.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Provider issues and validates HS256 session tokens. Validation consults the
// user directory (subject existence, watermark) and the revocation store.
type Provider struct {
	secret      []byte
	defaultTTL  time.Duration
	rememberTTL time.Duration
	users       UserDirectory
	revocations RevocationChecker
}

// NewProvider returns a Provider signing with secret. defaultTTL applies to
// normal logins, rememberTTL when remember_me is requested.
func NewProvider(secret []byte, defaultTTL, rememberTTL time.Duration, users UserDirectory, revocations RevocationChecker) *Provider {
	return &Provider{
		secret:      secret,
		defaultTTL:  defaultTTL,
		rememberTTL: rememberTTL,
		users:       users,
		revocations: revocations,
	}
}

// Issue signs a new token for username. The subject must resolve to an
// existing user; otherwise ErrUnknownSubject. Two calls at the same instant
// still produce distinct jti values since the jti is random, not time-derived.
func (p *Provider) Issue(ctx context.Context, username string, rememberMe bool, now time.Time) (string, *Claims, error) {
	u, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("issue: lookup subject: %w", err)
	}
	if u == nil {
		return "", nil, ErrUnknownSubject
	}

	ttl := p.defaultTTL
	if rememberMe {
		ttl = p.rememberTTL
	}
	now = now.UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		RememberMe: rememberMe,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", nil, fmt.Errorf("issue: sign: %w", err)
	}
	return signed, claims, nil
}

// Validate runs the full validation pass against now, in order: signature and
// structure, expiry, subject existence, explicit revocation, watermark. The
// expiry check precedes the revocation checks; an expired token must read
// "expired" even if it is also revoked.
func (p *Provider) Validate(ctx context.Context, tokenString string, now time.Time) (*Claims, error) {
	claims, err := p.parse(tokenString, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, err
	}

	u, err := p.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("validate: lookup subject: %w", err)
	}
	if u == nil {
		return nil, ErrUnknownSubject
	}

	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("validate: revocation lookup: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	if u.TokenInvalidBefore != nil && claims.IssuedAt.Time.Before(*u.TokenInvalidBefore) {
		return nil, ErrRevoked
	}

	return claims, nil
}

// Decode verifies the signature and structure only, skipping expiry and every
// store lookup. Logout uses it to extract jti/sub/exp from tokens that may
// already be expired.
func (p *Provider) Decode(tokenString string) (*Claims, error) {
	return p.parse(tokenString, jwt.WithoutClaimsValidation())
}

func (p *Provider) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if claims.ID == "" || claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	return claims, nil
}
