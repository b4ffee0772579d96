package domain

import (
	"errors"
	"time"
)

// User is the account entity owned by the wider application. This service
// reads it for authentication and mutates only TokenInvalidBefore.
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	IsActive       bool
	// TokenInvalidBefore is the mass-revocation watermark: every token whose
	// issued-at time is strictly before it is treated as revoked. Nil means
	// no watermark is in effect.
	TokenInvalidBefore *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.HashedPassword == "" {
		return errors.New("hashed password is required")
	}
	return nil
}
