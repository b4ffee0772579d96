package repository

import (
	"context"
	"time"

	"session-service/internal/revocation/domain"
)

// Repository defines persistence for revoked-token records.
type Repository interface {
	// Revoke inserts the record; if a record with the same jti already
	// exists its revoked_at is refreshed instead (idempotent revoke).
	Revoke(ctx context.Context, rec *domain.Record) error
	// IsRevoked reports whether a record exists for jti.
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// ListActive returns the user's records whose expires_at is after now,
	// i.e. revocations for tokens that would otherwise still be live.
	ListActive(ctx context.Context, userID int64, now time.Time) ([]*domain.Record, error)
	// DeleteExpired removes records whose expires_at has passed and returns
	// how many were deleted. Hygiene only; correctness never depends on it.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
