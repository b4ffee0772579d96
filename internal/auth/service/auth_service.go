// Package service orchestrates login and session revocation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"session-service/internal/audit"
	auditdomain "session-service/internal/audit/domain"
	"session-service/internal/obs"
	revocationdomain "session-service/internal/revocation/domain"
	"session-service/internal/security"
	"session-service/internal/token"
	userdomain "session-service/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP responses.
var (
	// ErrInvalidCredentials covers wrong username, wrong password, and
	// inactive account. Deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionsSuspended means the user's mass-revocation watermark is in
	// the future; logins are blocked until it elapses.
	ErrSessionsSuspended = errors.New("sessions suspended")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	SetTokenInvalidBefore(ctx context.Context, id int64, t *time.Time) error
}

// RevocationRepo is the minimal revocation repository needed by the auth service.
type RevocationRepo interface {
	Revoke(ctx context.Context, rec *revocationdomain.Record) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	ListActive(ctx context.Context, userID int64, now time.Time) ([]*revocationdomain.Record, error)
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	AccessToken string
	Claims      *token.Claims
	User        *userdomain.User
}

// LogoutOutcome describes what a logout call actually did.
type LogoutOutcome int

const (
	// LogoutRevoked means a revocation record was written.
	LogoutRevoked LogoutOutcome = iota
	// LogoutAlreadyRevoked means the token was revoked before this call.
	LogoutAlreadyRevoked
	// LogoutSkipped means there was nothing to do: the token was expired,
	// malformed, or its subject no longer exists. Still a success for the
	// caller, whose intent (end this session) is already satisfied.
	LogoutSkipped
)

// AuthService implements login, logout, logout-all, and tracked bulk revocation.
type AuthService struct {
	users       UserRepo
	revocations RevocationRepo
	hasher      *security.Hasher
	tokens      *token.Provider
	audit       audit.AuditLogger
	log         *zap.Logger
	now         func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	revocations RevocationRepo,
	hasher *security.Hasher,
	tokens *token.Provider,
	auditLog audit.AuditLogger,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		revocations: revocations,
		hasher:      hasher,
		tokens:      tokens,
		audit:       auditLog,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests use it to pin "now".
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login authenticates username/password and issues a session token. Wrong
// username, wrong password, and inactive account all return
// ErrInvalidCredentials. A future-dated watermark returns
// ErrSessionsSuspended; an elapsed watermark is cleared so later validations
// skip the comparison. A watermark equal to the current instant counts as
// elapsed.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.hasher.Verify(u.HashedPassword, []byte(password)) || !u.IsActive {
		s.audit.LogEvent(ctx, nil, auditdomain.ActionLoginFailure, username)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if wm := u.TokenInvalidBefore; wm != nil {
		if wm.After(now) {
			return nil, ErrSessionsSuspended
		}
		if err := s.users.SetTokenInvalidBefore(ctx, u.ID, nil); err != nil {
			return nil, fmt.Errorf("clear watermark: %w", err)
		}
		u.TokenInvalidBefore = nil
	}

	signed, claims, err := s.tokens.Issue(ctx, u.Username, rememberMe, now)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, &u.ID, auditdomain.ActionLoginSuccess, claims.ID)
	s.log.Info("login",
		zap.String("username", u.Username),
		zap.Bool("remember_me", rememberMe))

	return &LoginResult{AccessToken: signed, Claims: claims, User: u}, nil
}

// Logout revokes the given token. Decoding is lenient: the signature must
// check out, but an expired token is a harmless no-op, an already revoked
// token reports LogoutAlreadyRevoked, and neither is an error. Only storage
// failures propagate.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (LogoutOutcome, error) {
	claims, err := s.tokens.Decode(tokenString)
	if err != nil {
		return LogoutSkipped, nil
	}
	now := s.now()
	if claims.ExpiresAt.Time.Before(now) {
		return LogoutSkipped, nil
	}

	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return LogoutSkipped, err
	}
	if u == nil {
		return LogoutSkipped, nil
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return LogoutSkipped, err
	}
	if revoked {
		return LogoutAlreadyRevoked, nil
	}

	rec := &revocationdomain.Record{
		JTI:       claims.ID,
		Token:     tokenString,
		UserID:    u.ID,
		RevokedAt: now,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.revocations.Revoke(ctx, rec); err != nil {
		return LogoutSkipped, err
	}

	obs.RevocationsTotal.WithLabelValues("logout").Inc()
	s.audit.LogEvent(ctx, &u.ID, auditdomain.ActionLogout, claims.ID)
	return LogoutRevoked, nil
}

// LogoutAll advances the user's mass-revocation watermark to now in a single
// atomic update. Every token issued before this instant — including ones this
// process has never seen — stops validating immediately. Returns the
// watermark written.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (time.Time, error) {
	now := s.now()
	if err := s.users.SetTokenInvalidBefore(ctx, userID, &now); err != nil {
		return time.Time{}, err
	}

	obs.RevocationsTotal.WithLabelValues("logout_all").Inc()
	s.audit.LogEvent(ctx, &userID, auditdomain.ActionLogoutAll, "")
	s.log.Info("logout all sessions", zap.Int64("user_id", userID))
	return now, nil
}

// RevokeAllTracked revokes each of the caller-supplied active tokens by jti.
// The enumeration-based counterpart to LogoutAll for callers that track live
// tokens themselves. Malformed and expired entries are skipped, not fatal;
// already revoked entries get their revoked_at refreshed. Returns how many
// records were written.
func (s *AuthService) RevokeAllTracked(ctx context.Context, userID int64, activeTokens []string) (int, error) {
	now := s.now()
	revoked := 0
	for _, tok := range activeTokens {
		claims, err := s.tokens.Decode(tok)
		if err != nil {
			continue
		}
		if claims.ExpiresAt.Time.Before(now) {
			continue
		}
		rec := &revocationdomain.Record{
			JTI:       claims.ID,
			Token:     tok,
			UserID:    userID,
			RevokedAt: now,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		if err := s.revocations.Revoke(ctx, rec); err != nil {
			return revoked, err
		}
		obs.RevocationsTotal.WithLabelValues("tracked").Inc()
		revoked++
	}
	return revoked, nil
}

// ActiveRevocations lists the user's not-yet-expired revocation records.
func (s *AuthService) ActiveRevocations(ctx context.Context, userID int64) ([]*revocationdomain.Record, error) {
	return s.revocations.ListActive(ctx, userID, s.now())
}
