package repository

import (
	"context"
	"time"

	"school-admin-platform/backend/internal/session/domain"
)

// Repository defines persistence for session entries.
type Repository interface {
	Create(ctx context.Context, s *domain.SessionEntry) error
	// Exists reports whether a live entry exists for jti.
	Exists(ctx context.Context, jti string) (bool, error)
	// Touch updates the entry's last-activity timestamp.
	Touch(ctx context.Context, jti string, at time.Time) error
	Delete(ctx context.Context, jti string) error
	// DeleteAllForSubject removes all entries owned by subjectID.
	// excludingJTI may be empty to delete everything.
	DeleteAllForSubject(ctx context.Context, subjectID, excludingJTI string) error
	// DeleteExpired removes entries past expiry and returns how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
