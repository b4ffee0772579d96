package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"session-service/internal/db"
	"session-service/internal/revocation/domain"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists revoked-token records in Postgres.
type PostgresRepository struct {
	db *db.DB
}

// NewPostgresRepository returns a revocation repository backed by the given pool.
func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	qRevokeUpsert = `
INSERT INTO revoked_tokens (jti, token, user_id, revoked_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (jti) DO UPDATE SET revoked_at = EXCLUDED.revoked_at;`

	qIsRevoked = `
SELECT 1 FROM revoked_tokens WHERE jti = $1;`

	qListActive = `
SELECT jti, token, user_id, revoked_at, expires_at
FROM revoked_tokens
WHERE user_id = $1 AND expires_at > $2
ORDER BY revoked_at;`

	qDeleteExpired = `
DELETE FROM revoked_tokens WHERE expires_at <= $1;`
)

// Revoke upserts the record keyed by jti. The single statement keeps
// concurrent revokes of the same token from racing.
func (r *PostgresRepository) Revoke(ctx context.Context, rec *domain.Record) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qRevokeUpsert,
		rec.JTI, rec.Token, rec.UserID, rec.RevokedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("revoked token upsert: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has a revocation record.
func (r *PostgresRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var one int
	err := r.db.Pool.QueryRow(ctx, qIsRevoked, jti).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("revoked token lookup: %w", err)
	}
	return true, nil
}

// ListActive returns the user's not-yet-expired revocation records.
func (r *PostgresRepository) ListActive(ctx context.Context, userID int64, now time.Time) ([]*domain.Record, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qListActive, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list active revocations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.JTI, &rec.Token, &rec.UserID, &rec.RevokedAt, &rec.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan revocation record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active revocations: %w", err)
	}
	return out, nil
}

// DeleteExpired removes records whose expires_at is at or before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qDeleteExpired, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	return tag.RowsAffected(), nil
}
