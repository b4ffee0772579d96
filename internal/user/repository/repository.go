package repository

import (
	"context"
	"time"

	"session-service/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when
// the row does not exist; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetTokenInvalidBefore sets or clears (nil) the user's mass-revocation
	// watermark in a single UPDATE.
	SetTokenInvalidBefore(ctx context.Context, id int64, t *time.Time) error
}
