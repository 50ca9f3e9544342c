package repository

import (
	"context"

	"school-admin-platform/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	// UpdatePasswordHash replaces the stored password hash for userID.
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}
