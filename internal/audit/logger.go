package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"school-admin-platform/backend/internal/audit/domain"
	auditrepo "school-admin-platform/backend/internal/audit/repository"
)

// AuditLogger writes a single audit event. Used by the auth handlers.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, subjectID, action, resource, ip, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, subjectID, action, resource, ip, metadata string) {
	if l.repo == nil {
		return
	}
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		SubjectID: subjectID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}

// NopLogger discards every event. Used when auditing is disabled and in tests.
type NopLogger struct{}

func (NopLogger) LogEvent(ctx context.Context, subjectID, action, resource, ip, metadata string) {}
