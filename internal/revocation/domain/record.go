package domain

import "time"

// Record is one revoked token. jti is the primary key; the raw token string
// is kept for exact-match lookups. ExpiresAt is copied from the token's exp
// claim so the retention sweep can drop records once the token would have
// expired on its own anyway.
type Record struct {
	JTI       string
	Token     string
	UserID    int64
	RevokedAt time.Time
	ExpiresAt time.Time
}
