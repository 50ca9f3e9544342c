package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-admin-platform/backend/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credentialColumns = `id, subject_id, credential_hash, expires_at, used, used_at, ip_address, user_agent, created_at`

// Create persists the credential to the database. The credential must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.RefreshCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_credentials (`+credentialColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.SubjectID, c.CredentialHash, c.ExpiresAt, c.Used,
		timeToNullTime(c.UsedAt),
		sql.NullString{String: c.IPAddress, Valid: c.IPAddress != ""},
		sql.NullString{String: c.UserAgent, Valid: c.UserAgent != ""},
		c.CreatedAt,
	)
	return err
}

// GetByID returns the credential for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.RefreshCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM refresh_credentials WHERE id = $1`, id)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// MarkUsed flips the used flag for id. The WHERE used = false guard makes the
// update atomic: exactly one of two concurrent callers wins, the other gets
// ErrAlreadyUsed.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return markUsed(ctx, r.db, id, at)
}

// Rotate marks the old credential used and inserts successor in one transaction.
// Returns ErrAlreadyUsed without inserting if the old credential was already consumed.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, at time.Time, successor *domain.RefreshCredential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := markUsed(ctx, tx, oldID, at); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO refresh_credentials (`+credentialColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		successor.ID, successor.SubjectID, successor.CredentialHash, successor.ExpiresAt, successor.Used,
		timeToNullTime(successor.UsedAt),
		sql.NullString{String: successor.IPAddress, Valid: successor.IPAddress != ""},
		sql.NullString{String: successor.UserAgent, Valid: successor.UserAgent != ""},
		successor.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAllForSubject removes all credentials for subjectID, optionally keeping excludingID.
func (r *PostgresRepository) DeleteAllForSubject(ctx context.Context, subjectID, excludingID string) error {
	if excludingID == "" {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM refresh_credentials WHERE subject_id = $1`, subjectID)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_credentials WHERE subject_id = $1 AND id <> $2`, subjectID, excludingID)
	return err
}

// DeleteExpired removes rows past expiry and returns the number deleted.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_credentials WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func markUsed(ctx context.Context, db execer, id string, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE refresh_credentials SET used = true, used_at = $2 WHERE id = $1 AND used = false`,
		id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

func scanCredential(row *sql.Row) (*domain.RefreshCredential, error) {
	var (
		c      domain.RefreshCredential
		usedAt sql.NullTime
		ip     sql.NullString
		ua     sql.NullString
	)
	err := row.Scan(&c.ID, &c.SubjectID, &c.CredentialHash, &c.ExpiresAt, &c.Used, &usedAt, &ip, &ua, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.UsedAt = nullTimeToPtr(usedAt)
	if ip.Valid {
		c.IPAddress = ip.String
	}
	if ua.Valid {
		c.UserAgent = ua.String
	}
	return &c, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
