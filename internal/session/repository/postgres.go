package repository

import (
	"context"
	"database/sql"
	"time"

	"school-admin-platform/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session entry. The entry must have JTI set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.SessionEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, subject_id, created_at, last_activity_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.JTI, s.SubjectID, s.CreatedAt, s.LastActivityAt, s.ExpiresAt)
	return err
}

// Exists reports whether an unexpired entry exists for jti.
func (r *PostgresRepository) Exists(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1 AND expires_at > now())`, jti).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Touch sets the entry's last-activity timestamp. A missing entry is not an error.
func (r *PostgresRepository) Touch(ctx context.Context, jti string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = $2 WHERE id = $1`, jti, at)
	return err
}

// Delete removes the entry for jti. Deleting a missing entry succeeds.
func (r *PostgresRepository) Delete(ctx context.Context, jti string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, jti)
	return err
}

// DeleteAllForSubject removes all entries for subjectID, optionally keeping excludingJTI.
func (r *PostgresRepository) DeleteAllForSubject(ctx context.Context, subjectID, excludingJTI string) error {
	if excludingJTI == "" {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM sessions WHERE subject_id = $1`, subjectID)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE subject_id = $1 AND id <> $2`, subjectID, excludingJTI)
	return err
}

// DeleteExpired removes entries past expiry and returns the number deleted.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
