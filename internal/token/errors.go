package token

import "errors"

// Validation failure taxonomy. Callers branch on these with errors.Is; the
// HTTP layer maps them to distinct client-facing messages, except
// ErrUnknownSubject which is reported exactly like ErrRevoked to avoid
// leaking whether an account exists.
var (
	// ErrMalformed means the token is structurally invalid or mis-signed.
	ErrMalformed = errors.New("token malformed or signature invalid")
	// ErrExpired means the token's exp has passed. Reported before any
	// revocation check so an expired-and-revoked token still reads "expired".
	ErrExpired = errors.New("token expired")
	// ErrRevoked means the token was individually revoked or was issued
	// before the user's mass-revocation watermark.
	ErrRevoked = errors.New("token revoked")
	// ErrUnknownSubject means the subject no longer resolves to a user.
	ErrUnknownSubject = errors.New("unknown subject")
)
