package service

import (
	"context"
	"errors"
	"time"

	credentialdomain "school-admin-platform/backend/internal/credential/domain"
	credentialrepo "school-admin-platform/backend/internal/credential/repository"
	"school-admin-platform/backend/internal/security"
	sessiondomain "school-admin-platform/backend/internal/session/domain"
)

// Sentinel errors for the token lifecycle; the handler maps them to envelope codes.
var (
	// ErrTokenInvalid covers malformed, unknown, or hash-mismatched tokens.
	// Client-correctable: re-authenticate, no security action taken.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired covers well-formed tokens past their expiry.
	// Client-correctable: re-authenticate, no security action taken.
	ErrTokenExpired = errors.New("token expired")
	// ErrReplayDetected covers presentation of an already-consumed refresh
	// credential. By the time it is returned, every session and credential of
	// the owning subject has been invalidated.
	ErrReplayDetected = errors.New("token replay detected")
)

// TokenPair is the result of issuing or refreshing.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInSeconds int64
}

// CredentialStore is the durable+cached refresh credential store the lifecycle needs.
type CredentialStore interface {
	Create(ctx context.Context, subjectID string, meta credentialdomain.DeviceMeta, ttl time.Duration) (string, *credentialdomain.RefreshCredential, error)
	Lookup(ctx context.Context, id string) (*credentialdomain.RefreshCredential, error)
	Rotate(ctx context.Context, old *credentialdomain.RefreshCredential, meta credentialdomain.DeviceMeta, ttl time.Duration) (string, *credentialdomain.RefreshCredential, error)
	DeleteAllForSubject(ctx context.Context, subjectID, excludingID string) error
}

// SessionRegistry is the minimal session repository the lifecycle needs.
type SessionRegistry interface {
	Create(ctx context.Context, s *sessiondomain.SessionEntry) error
	Exists(ctx context.Context, jti string) (bool, error)
	Touch(ctx context.Context, jti string, at time.Time) error
	DeleteAllForSubject(ctx context.Context, subjectID, excludingJTI string) error
}

// Notifier receives security notifications from the lifecycle. Implementations
// must be fast or hand off to a goroutine; they are called on the request path.
type Notifier interface {
	// ReplayDetected fires after a consumed credential was presented again and
	// the subject's sessions were invalidated.
	ReplayDetected(ctx context.Context, subjectID, credentialID string, meta credentialdomain.DeviceMeta)
}

// ClaimsSource resolves the claims to embed in tokens issued for a subject.
// Refresh re-resolves claims so that role or language changes take effect on
// the next rotation rather than lingering until logout.
type ClaimsSource interface {
	ClaimsFor(ctx context.Context, subjectID string) (security.CustomClaims, error)
}

// LifecycleService owns the token state machine: issuance, refresh with
// rotation, replay response, logout, and password-change invalidation. The
// stores are passive collaborators; every transition rule lives here. The
// service holds no mutable state and is safe for concurrent use.
type LifecycleService struct {
	codec       *security.TokenCodec
	credentials CredentialStore
	sessions    SessionRegistry
	claims      ClaimsSource // may be nil; zero claims are embedded then
	notifier    Notifier     // may be nil
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewLifecycleService returns a LifecycleService with the given dependencies.
func NewLifecycleService(
	codec *security.TokenCodec,
	credentials CredentialStore,
	sessions SessionRegistry,
	claims ClaimsSource,
	accessTTL, refreshTTL time.Duration,
) *LifecycleService {
	return &LifecycleService{
		codec:       codec,
		credentials: credentials,
		sessions:    sessions,
		claims:      claims,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// SetNotifier installs the security notifier. Must be called before the
// service starts handling requests; nil disables notifications.
func (s *LifecycleService) SetNotifier(n Notifier) {
	s.notifier = n
}

// IssuePair creates a session entry and a refresh credential for subjectID and
// returns the signed access token with the raw refresh credential. Called
// after the external credential check has verified the subject; no prior
// lifecycle state is required.
func (s *LifecycleService) IssuePair(ctx context.Context, subjectID string, claims security.CustomClaims, meta credentialdomain.DeviceMeta) (*TokenPair, error) {
	access, jti, expiresAt, err := s.codec.Issue(subjectID, claims, s.accessTTL)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	entry := &sessiondomain.SessionEntry{
		JTI:            jti,
		SubjectID:      subjectID,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if err := s.sessions.Create(ctx, entry); err != nil {
		return nil, err
	}
	rawRefresh, _, err := s.credentials.Create(ctx, subjectID, meta, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     rawRefresh,
		ExpiresInSeconds: int64(s.accessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a raw refresh credential for a new token pair, rotating
// the credential. A replay (already-consumed credential) invalidates every
// session and credential of the owning subject before ErrReplayDetected is
// returned. Expired or unknown credentials fail without mutation.
//
// Refresh is intentionally not retry-idempotent: a client that resubmits
// after a timeout may trigger replay detection on its own retry. That is the
// documented cost of one-time-use rotation.
func (s *LifecycleService) Refresh(ctx context.Context, rawRefresh string, meta credentialdomain.DeviceMeta) (*TokenPair, error) {
	id, secret, err := credentialdomain.DecodeRaw(rawRefresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	rec, err := s.credentials.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrTokenInvalid
	}
	// The secret must verify before the record's state is consulted at all. A
	// known id with a wrong secret is a guess, not possession of the
	// credential; letting it reach the replay branch would hand anyone who
	// learns a credential id a remote logout-everything switch.
	if !security.CredentialSecretEqual(secret, rec.CredentialHash) {
		return nil, ErrTokenInvalid
	}
	switch EvaluateReplay(rec, time.Now().UTC()) {
	case DecisionReplay:
		if err := s.invalidateSubject(ctx, rec.SubjectID); err != nil {
			return nil, err
		}
		s.notifyReplay(ctx, rec.SubjectID, rec.ID, meta)
		return nil, ErrReplayDetected
	case DecisionExpired:
		return nil, ErrTokenExpired
	}

	newRaw, _, err := s.credentials.Rotate(ctx, rec, meta, s.refreshTTL)
	if err != nil {
		if errors.Is(err, credentialrepo.ErrAlreadyUsed) {
			// Lost the conditional update race: someone else consumed the
			// credential between lookup and rotation. Same response as replay.
			if err := s.invalidateSubject(ctx, rec.SubjectID); err != nil {
				return nil, err
			}
			s.notifyReplay(ctx, rec.SubjectID, rec.ID, meta)
			return nil, ErrReplayDetected
		}
		return nil, err
	}

	claims, err := s.claimsFor(ctx, rec.SubjectID)
	if err != nil {
		return nil, err
	}
	access, jti, expiresAt, err := s.codec.Issue(rec.SubjectID, claims, s.accessTTL)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	entry := &sessiondomain.SessionEntry{
		JTI:            jti,
		SubjectID:      rec.SubjectID,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if err := s.sessions.Create(ctx, entry); err != nil {
		return nil, err
	}
	// The old session entry is left in place: its access token is already
	// gated by the short signature expiry, and subject-wide invalidation
	// covers the theft case.
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     newRaw,
		ExpiresInSeconds: int64(s.accessTTL.Seconds()),
	}, nil
}

// ValidateAccess verifies an access token cryptographically and then against
// the session registry: a verified token whose entry was deleted is no longer
// honored. On success the entry's last-activity timestamp is bumped.
func (s *LifecycleService) ValidateAccess(ctx context.Context, accessToken string) (string, string, security.CustomClaims, error) {
	subjectID, jti, claims, err := s.codec.Verify(accessToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return "", "", security.CustomClaims{}, ErrTokenExpired
		}
		return "", "", security.CustomClaims{}, ErrTokenInvalid
	}
	ok, err := s.sessions.Exists(ctx, jti)
	if err != nil {
		return "", "", security.CustomClaims{}, err
	}
	if !ok {
		return "", "", security.CustomClaims{}, ErrTokenInvalid
	}
	_ = s.sessions.Touch(ctx, jti, time.Now().UTC()) // best-effort
	return subjectID, jti, claims, nil
}

// Logout removes every session and credential of the subject. Idempotent:
// logging out twice, or with nothing left to remove, still succeeds.
func (s *LifecycleService) Logout(ctx context.Context, subjectID string) error {
	return s.invalidateSubject(ctx, subjectID)
}

// InvalidateOtherSessions removes all of the subject's sessions except
// currentJTI and all credentials except currentCredentialID. Invoked by the
// password-change collaborator, which knows which pair is "current".
func (s *LifecycleService) InvalidateOtherSessions(ctx context.Context, subjectID, currentJTI, currentCredentialID string) error {
	if err := s.sessions.DeleteAllForSubject(ctx, subjectID, currentJTI); err != nil {
		return err
	}
	return s.credentials.DeleteAllForSubject(ctx, subjectID, currentCredentialID)
}

func (s *LifecycleService) invalidateSubject(ctx context.Context, subjectID string) error {
	if err := s.sessions.DeleteAllForSubject(ctx, subjectID, ""); err != nil {
		return err
	}
	return s.credentials.DeleteAllForSubject(ctx, subjectID, "")
}

func (s *LifecycleService) notifyReplay(ctx context.Context, subjectID, credentialID string, meta credentialdomain.DeviceMeta) {
	if s.notifier != nil {
		s.notifier.ReplayDetected(ctx, subjectID, credentialID, meta)
	}
}

func (s *LifecycleService) claimsFor(ctx context.Context, subjectID string) (security.CustomClaims, error) {
	if s.claims == nil {
		return security.CustomClaims{}, nil
	}
	return s.claims.ClaimsFor(ctx, subjectID)
}
