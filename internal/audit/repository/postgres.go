package repository

import (
	"context"
	"database/sql"

	"school-admin-platform/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	subject := sql.NullString{String: a.SubjectID, Valid: a.SubjectID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, subject_id, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, subject, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

// ListBySubject returns audit logs for the given subject, newest first,
// paginated by limit and offset.
func (r *PostgresRepository) ListBySubject(ctx context.Context, subjectID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, subject_id, action, resource, ip, metadata, created_at
		 FROM audit_logs
		 WHERE subject_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		subjectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a             domain.AuditLog
			subject, meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &subject, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.SubjectID = subject.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
