package repository

import (
	"context"
	"fmt"

	"session-service/internal/audit/domain"
	"session-service/internal/db"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists audit logs in Postgres.
type PostgresRepository struct {
	db *db.DB
}

// NewPostgresRepository returns an audit log repository backed by the given pool.
func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	qAuditInsert = `
INSERT INTO audit_logs (id, user_id, action, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	qAuditByUser = `
SELECT id, user_id, action, ip, metadata, created_at
FROM audit_logs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
)

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qAuditInsert, a.ID, a.UserID, a.Action, a.IP, a.Metadata, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

// ListByUser returns the user's audit events, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.AuditLog, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qAuditByUser, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit list: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit list: %w", err)
	}
	return out, nil
}
