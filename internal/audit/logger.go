// Package audit records best-effort audit events for session operations.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"session-service/internal/audit/domain"
	auditrepo "session-service/internal/audit/repository"
)

// AuditLogger writes a single audit event. Best-effort: failures are logged
// and never affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID *int64, action, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
	log  *zap.Logger
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository, log *zap.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// LogEvent writes one audit log entry. Errors are logged, not returned.
func (l *Logger) LogEvent(ctx context.Context, userID *int64, action, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		IP:        ClientIP(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit event not recorded",
			zap.String("action", action), zap.Error(err))
	}
}

// Nop is an AuditLogger that discards events; used in tests and tools.
type Nop struct{}

// LogEvent discards the event.
func (Nop) LogEvent(context.Context, *int64, string, string) {}
