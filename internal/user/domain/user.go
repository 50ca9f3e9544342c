package domain

import (
	"errors"
	"time"
)

// User is the core account entity.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Language     string // preferred UI language, embedded into issued tokens
	Roles        []string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// Active reports whether the user may authenticate.
func (u *User) Active() bool {
	return u.Status == UserStatusActive
}
