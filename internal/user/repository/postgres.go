package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"school-admin-platform/backend/internal/user/domain"
)

const userColumns = "id, email, name, password_hash, language, roles, status, created_at, updated_at"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, nullString(u.Name), u.PasswordHash, nullString(u.Language),
		encodeRoles(u.Roles), string(u.Status), u.CreatedAt, u.UpdatedAt)
	return err
}

// Update persists mutable user fields.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, name = $3, language = $4, roles = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Email, nullString(u.Name), nullString(u.Language),
		encodeRoles(u.Roles), string(u.Status), u.UpdatedAt)
	return err
}

// UpdatePasswordHash replaces the stored password hash for userID.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, hash, time.Now().UTC())
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u              domain.User
		name, language sql.NullString
		roles          sql.NullString
		status         string
	)
	err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &language, &roles, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Name = name.String
	u.Language = language.String
	u.Roles = decodeRoles(roles.String)
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// Roles are stored as a comma separated list; none of the role names contain commas.
func encodeRoles(roles []string) sql.NullString {
	return nullString(strings.Join(roles, ","))
}

func decodeRoles(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
