package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"session-service/internal/db"
	"session-service/internal/user/domain"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *db.DB
}

// NewPostgresRepository returns a user repository backed by the given pool.
func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	qUserByID = `
SELECT id, username, email, hashed_password, is_active, token_invalid_before, created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByUsername = `
SELECT id, username, email, hashed_password, is_active, token_invalid_before, created_at, updated_at
FROM users
WHERE lower(username) = lower($1);`

	qUserInsert = `
INSERT INTO users (username, email, hashed_password, is_active)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at;`

	qUserSetWatermark = `
UPDATE users
SET token_invalid_before = $2,
    updated_at           = now()
WHERE id = $1;`
)

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id))
}

// GetByUsername returns the user for username (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(r.db.Pool.QueryRow(ctx, qUserByUsername, username))
}

// Create persists a new user and fills in its generated fields.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qUserInsert, u.Username, u.Email, u.HashedPassword, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

// SetTokenInvalidBefore sets or clears the user's watermark with a single
// atomic UPDATE so concurrent logout-all calls cannot interleave.
func (r *PostgresRepository) SetTokenInvalidBefore(ctx context.Context, id int64, t *time.Time) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qUserSetWatermark, id, t); err != nil {
		return fmt.Errorf("user set watermark: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsActive,
		&u.TokenInvalidBefore, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
