package domain

import "time"

// Actions recorded by the session subsystem.
const (
	ActionLoginSuccess = "login_success"
	ActionLoginFailure = "login_failure"
	ActionLogout       = "logout"
	ActionLogoutAll    = "logout_all"
)

// AuditLog is one append-only audit event. UserID is nil for events that
// could not be attributed to an account (e.g. failed logins).
type AuditLog struct {
	ID        string
	UserID    *int64
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
