package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	credentialdomain "school-admin-platform/backend/internal/credential/domain"
	"school-admin-platform/backend/internal/security"
	tokenservice "school-admin-platform/backend/internal/token/service"
	userdomain "school-admin-platform/backend/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[string]*userdomain.User),
		byEmail: make(map[string]*userdomain.User),
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *memUserRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		u2 := *u
		u2.PasswordHash = hash
		r.byID[userID] = &u2
		r.byEmail[u.Email] = &u2
	}
	return nil
}

// fakeLifecycle records calls instead of issuing real tokens.
type fakeLifecycle struct {
	mu          sync.Mutex
	issued      []string // subject IDs passed to IssuePair
	lastClaims  security.CustomClaims
	invalidated []string // subject IDs passed to InvalidateOtherSessions
}

func (f *fakeLifecycle) IssuePair(ctx context.Context, subjectID string, claims security.CustomClaims, meta credentialdomain.DeviceMeta) (*tokenservice.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, subjectID)
	f.lastClaims = claims
	return &tokenservice.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresInSeconds: 60}, nil
}

func (f *fakeLifecycle) InvalidateOtherSessions(ctx context.Context, subjectID, currentJTI, currentCredentialID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, subjectID)
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *memUserRepo, *fakeLifecycle) {
	t.Helper()
	users := newMemUserRepo()
	lifecycle := &fakeLifecycle{}
	svc := NewAuthService(users, security.NewHasher(bcrypt.MinCost), lifecycle)
	return svc, users, lifecycle
}

func seedUser(t *testing.T, svc *AuthService, email, password string) *userdomain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), email, password, "Test User", "nl")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, lifecycle := newTestAuthService(t)
	ctx := context.Background()

	u := seedUser(t, svc, "admin@school.example", "correct-horse-7")
	if u.Status != userdomain.UserStatusActive {
		t.Fatalf("status = %q, want active", u.Status)
	}

	pair, loggedIn, err := svc.Login(ctx, "Admin@School.Example ", "correct-horse-7", credentialdomain.DeviceMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login returned empty tokens")
	}
	if loggedIn.ID != u.ID {
		t.Fatalf("logged in user = %s, want %s", loggedIn.ID, u.ID)
	}
	if len(lifecycle.issued) != 1 || lifecycle.issued[0] != u.ID {
		t.Fatalf("issued = %v, want [%s]", lifecycle.issued, u.ID)
	}
	if lifecycle.lastClaims.Language != "nl" {
		t.Fatalf("claims language = %q, want nl", lifecycle.lastClaims.Language)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	seedUser(t, svc, "admin@school.example", "correct-horse-7")
	_, err := svc.Register(context.Background(), "admin@school.example", "another-pass-1", "", "")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	for _, password := range []string{"short1", "nonumbershere", "0123456789"} {
		if _, err := svc.Register(ctx, "weak@school.example", password, "", ""); err == nil {
			t.Fatalf("Register accepted weak password %q", password)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	svc, users, lifecycle := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc, "admin@school.example", "correct-horse-7")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@school.example", "correct-horse-7"},
		{"wrong password", "admin@school.example", "wrong-horse-7"},
		{"empty password", "admin@school.example", ""},
	}
	for _, tc := range cases {
		if _, _, err := svc.Login(ctx, tc.email, tc.password, credentialdomain.DeviceMeta{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: err = %v, want ErrInvalidCredentials", tc.name, err)
		}
	}

	disabled := *u
	disabled.Status = userdomain.UserStatusDisabled
	if err := users.Create(ctx, &disabled); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "correct-horse-7", credentialdomain.DeviceMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("disabled user: err = %v, want ErrInvalidCredentials", err)
	}
	if len(lifecycle.issued) != 0 {
		t.Fatalf("tokens issued on failed logins: %v", lifecycle.issued)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, lifecycle := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc, "admin@school.example", "correct-horse-7")

	if err := svc.ChangePassword(ctx, u.ID, "correct-horse-7", "new-stable-horse-8", "jti-1", "cred-1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if len(lifecycle.invalidated) != 1 || lifecycle.invalidated[0] != u.ID {
		t.Fatalf("invalidated = %v, want [%s]", lifecycle.invalidated, u.ID)
	}

	if _, _, err := svc.Login(ctx, u.Email, "correct-horse-7", credentialdomain.DeviceMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "new-stable-horse-8", credentialdomain.DeviceMeta{}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, _, lifecycle := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc, "admin@school.example", "correct-horse-7")

	err := svc.ChangePassword(ctx, u.ID, "wrong-horse-7", "new-stable-horse-8", "jti-1", "cred-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if len(lifecycle.invalidated) != 0 {
		t.Fatal("sessions invalidated despite failed password check")
	}
	if _, _, err := svc.Login(ctx, u.Email, "correct-horse-7", credentialdomain.DeviceMeta{}); err != nil {
		t.Fatalf("original password no longer works: %v", err)
	}
}

func TestUserClaimsResolution(t *testing.T) {
	users := newMemUserRepo()
	now := time.Now().UTC()
	if err := users.Create(context.Background(), &userdomain.User{
		ID:           "u1",
		Email:        "teacher@school.example",
		PasswordHash: "x",
		Language:     "fr",
		Roles:        []string{"teacher", "mentor"},
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claims, err := NewUserClaims(users).ClaimsFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimsFor: %v", err)
	}
	if claims.Language != "fr" || len(claims.Roles) != 2 {
		t.Fatalf("claims = %+v, want language fr and two roles", claims)
	}

	claims, err = NewUserClaims(users).ClaimsFor(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ClaimsFor missing: %v", err)
	}
	if claims.Language != "" || claims.Roles != nil {
		t.Fatalf("claims for unknown user = %+v, want zero", claims)
	}
}
