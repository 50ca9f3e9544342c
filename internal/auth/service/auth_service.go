package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	credentialdomain "school-admin-platform/backend/internal/credential/domain"
	"school-admin-platform/backend/internal/security"
	tokenservice "school-admin-platform/backend/internal/token/service"
	userdomain "school-admin-platform/backend/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to response codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// TokenLifecycle is the slice of the token lifecycle the auth service drives.
type TokenLifecycle interface {
	IssuePair(ctx context.Context, subjectID string, claims security.CustomClaims, meta credentialdomain.DeviceMeta) (*tokenservice.TokenPair, error)
	InvalidateOtherSessions(ctx context.Context, subjectID, currentJTI, currentCredentialID string) error
}

// AuthService implements register, password login, and password change.
// Refresh and logout live in the token lifecycle service; this service only
// bridges user credentials to token issuance.
type AuthService struct {
	userRepo UserRepo
	hasher   *security.Hasher
	tokens   TokenLifecycle
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, hasher *security.Hasher, tokens TokenLifecycle) *AuthService {
	return &AuthService{userRepo: userRepo, hasher: hasher, tokens: tokens}
}

// Register creates a user with the given email and password. It does not log
// the user in; the caller must Login to obtain tokens.
func (s *AuthService) Register(ctx context.Context, email, password, name, language string) (*userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Language:     strings.TrimSpace(language),
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates with email and password and returns a fresh token pair.
// Missing users, disabled users, and wrong passwords all collapse into
// ErrInvalidCredentials so responses do not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string, meta credentialdomain.DeviceMeta) (*tokenservice.TokenPair, *userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.Active() {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.IssuePair(ctx, user.ID, claimsFor(user), meta)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// invalidates every session and refresh credential of the user except the one
// the change was made from.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentJTI, currentCredentialID string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !user.Active() {
		return ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hashed); err != nil {
		return err
	}
	return s.tokens.InvalidateOtherSessions(ctx, userID, currentJTI, currentCredentialID)
}

// UserClaims resolves token claims from the user repository. It backs the
// token lifecycle's claim resolution on refresh.
type UserClaims struct {
	userRepo UserRepo
}

func NewUserClaims(userRepo UserRepo) *UserClaims {
	return &UserClaims{userRepo: userRepo}
}

// ClaimsFor returns the claims to embed for userID. Unknown users get zero
// claims; the lifecycle's own checks decide whether the refresh proceeds.
func (c *UserClaims) ClaimsFor(ctx context.Context, userID string) (security.CustomClaims, error) {
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		return security.CustomClaims{}, err
	}
	if user == nil {
		return security.CustomClaims{}, nil
	}
	return claimsFor(user), nil
}

func claimsFor(u *userdomain.User) security.CustomClaims {
	return security.CustomClaims{Language: u.Language, Roles: u.Roles}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 10 {
		return errors.New("password must be at least 10 characters")
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter {
		return errors.New("password must contain at least one letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}
