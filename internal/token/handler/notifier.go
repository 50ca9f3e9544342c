package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"school-admin-platform/backend/internal/audit"
	auditdomain "school-admin-platform/backend/internal/audit/domain"
	credentialdomain "school-admin-platform/backend/internal/credential/domain"
	"school-admin-platform/backend/internal/events"
)

// SecurityNotifier records replay incidents in the audit log and publishes
// them to the security event stream. It implements the lifecycle notifier.
type SecurityNotifier struct {
	auditor audit.AuditLogger
	emitter events.Emitter // may be nil
}

func NewSecurityNotifier(auditor audit.AuditLogger, emitter events.Emitter) *SecurityNotifier {
	return &SecurityNotifier{auditor: auditor, emitter: emitter}
}

func (n *SecurityNotifier) ReplayDetected(ctx context.Context, subjectID, credentialID string, meta credentialdomain.DeviceMeta) {
	n.auditor.LogEvent(ctx, subjectID, auditdomain.ActionReplayDetected, auditdomain.ResourceAuth, meta.IPAddress, credentialID)
	events.EmitAsync(n.emitter, ctx, &events.SecurityEvent{
		ID:         uuid.New().String(),
		Type:       events.TypeReplayDetected,
		SubjectID:  subjectID,
		IP:         meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Metadata:   map[string]string{"credential_id": credentialID},
		OccurredAt: time.Now().UTC(),
	})
	events.EmitAsync(n.emitter, ctx, &events.SecurityEvent{
		ID:         uuid.New().String(),
		Type:       events.TypeMassInvalidation,
		SubjectID:  subjectID,
		IP:         meta.IPAddress,
		Metadata:   map[string]string{"reason": "replay"},
		OccurredAt: time.Now().UTC(),
	})
}
