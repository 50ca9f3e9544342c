package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"school-admin-platform/backend/internal/credential/domain"
	"school-admin-platform/backend/internal/security"
)

// Store combines the durable repository with the optional Redis mirror into
// the credential store used by the token lifecycle. Writes go durable-first,
// cache second; lookups are cache-first with read-through repopulation. The
// atomic mark-used decision always happens against the durable store, so a
// stale cache entry can delay but never corrupt replay detection.
type Store struct {
	repo  Repository
	cache *Cache // nil when the cache tier is disabled
}

// NewStore returns a Store over the durable repository and an optional cache.
func NewStore(repo Repository, cache *Cache) *Store {
	return &Store{repo: repo, cache: cache}
}

// Create generates a fresh credential for subjectID, persists its hash, and
// returns the raw value for one-time transmission to the caller along with the
// stored record. The raw value is never stored.
func (s *Store) Create(ctx context.Context, subjectID string, meta domain.DeviceMeta, ttl time.Duration) (string, *domain.RefreshCredential, error) {
	cred, secret, err := newCredential(subjectID, meta, ttl)
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return "", nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cred); err != nil {
			return "", nil, err
		}
	}
	return domain.EncodeRaw(cred.ID, secret), cred, nil
}

// Lookup returns the credential for id, or nil if not found. Cache-first; a
// miss falls back to the durable store and repopulates the cache, which keeps
// lookups correct after a cache flush.
func (s *Store) Lookup(ctx context.Context, id string) (*domain.RefreshCredential, error) {
	if s.cache != nil {
		if cred, err := s.cache.Get(ctx, id); err == nil && cred != nil {
			return cred, nil
		}
	}
	cred, err := s.repo.GetByID(ctx, id)
	if err != nil || cred == nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cred) // repopulation is best-effort
	}
	return cred, nil
}

// Rotate consumes old and issues its successor in one durable transaction.
// Returns ErrAlreadyUsed when old was already consumed (replay, or the lost
// half of a concurrent refresh race). Cache maintenance after the commit is
// best-effort: a stale old entry is resolved by the durable conditional update
// on its next presentation.
func (s *Store) Rotate(ctx context.Context, old *domain.RefreshCredential, meta domain.DeviceMeta, ttl time.Duration) (string, *domain.RefreshCredential, error) {
	successor, secret, err := newCredential(old.SubjectID, meta, ttl)
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.Rotate(ctx, old.ID, now, successor); err != nil {
		return "", nil, err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, old.SubjectID, old.ID)
		_ = s.cache.Set(ctx, successor)
	}
	return domain.EncodeRaw(successor.ID, secret), successor, nil
}

// DeleteAllForSubject removes the subject's credentials from both tiers.
// excludingID may be empty to delete everything.
func (s *Store) DeleteAllForSubject(ctx context.Context, subjectID, excludingID string) error {
	if err := s.repo.DeleteAllForSubject(ctx, subjectID, excludingID); err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.DeleteAllForSubject(ctx, subjectID, excludingID)
	}
	return nil
}

// DeleteExpired removes expired rows from the durable store. Cache entries
// expire on their own TTL.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}

func newCredential(subjectID string, meta domain.DeviceMeta, ttl time.Duration) (*domain.RefreshCredential, string, error) {
	secret, err := domain.NewSecret()
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	cred := &domain.RefreshCredential{
		ID:             uuid.New().String(),
		SubjectID:      subjectID,
		CredentialHash: security.HashCredentialSecret(secret),
		ExpiresAt:      now.Add(ttl),
		Used:           false,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		CreatedAt:      now,
	}
	return cred, secret, nil
}
