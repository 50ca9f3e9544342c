package repository

import (
	"context"

	"school-admin-platform/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListBySubject(ctx context.Context, subjectID string, limit, offset int32) ([]*domain.AuditLog, error)
}
