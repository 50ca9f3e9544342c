package repository

import (
	"context"
	"errors"
	"time"

	"school-admin-platform/backend/internal/credential/domain"
)

// ErrAlreadyUsed is returned when the conditional mark-used update finds the
// credential's used flag already set. The caller treats this as a replay;
// losing a benign concurrent-refresh race is deliberately indistinguishable.
var ErrAlreadyUsed = errors.New("credential already used")

// Repository defines durable persistence for refresh credentials.
type Repository interface {
	Create(ctx context.Context, c *domain.RefreshCredential) error
	// GetByID returns the credential for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.RefreshCredential, error)
	// MarkUsed flips the used flag with a conditional update. Returns
	// ErrAlreadyUsed if the flag was already set.
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// Rotate marks the old credential used and inserts its successor in a
	// single transaction. A crash between the two steps never double-issues:
	// either both happen or neither. Returns ErrAlreadyUsed if the old
	// credential was already consumed.
	Rotate(ctx context.Context, oldID string, at time.Time, successor *domain.RefreshCredential) error
	// DeleteAllForSubject removes all credentials owned by subjectID.
	// excludingID may be empty to delete everything.
	DeleteAllForSubject(ctx context.Context, subjectID, excludingID string) error
	// DeleteExpired removes rows past expiry and returns how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
