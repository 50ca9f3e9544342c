package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"school-admin-platform/backend/internal/credential/domain"
)

const (
	credentialKeyPrefix = "credential:"
	subjectSetPrefix    = "credential_subject:"
)

// Cache mirrors refresh credential rows in Redis with a TTL equal to the
// credential's remaining lifetime. It is a pure performance layer: absence in
// the cache is never authoritative, and the durable store always wins.
type Cache struct {
	rdb *redis.Client
}

// NewCache returns a credential cache backed by the given Redis client.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

type cachedCredential struct {
	ID             string     `json:"id"`
	SubjectID      string     `json:"subject_id"`
	CredentialHash string     `json:"credential_hash"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Used           bool       `json:"used"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	IPAddress      string     `json:"ip_address,omitempty"`
	UserAgent      string     `json:"user_agent,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Get returns the cached credential for id, or nil on a miss.
// A corrupt entry is dropped and reported as a miss.
func (c *Cache) Get(ctx context.Context, id string) (*domain.RefreshCredential, error) {
	val, err := c.rdb.Get(ctx, credentialKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cc cachedCredential
	if err := json.Unmarshal([]byte(val), &cc); err != nil {
		_ = c.rdb.Del(ctx, credentialKeyPrefix+id).Err()
		return nil, nil
	}
	return &domain.RefreshCredential{
		ID:             cc.ID,
		SubjectID:      cc.SubjectID,
		CredentialHash: cc.CredentialHash,
		ExpiresAt:      cc.ExpiresAt,
		Used:           cc.Used,
		UsedAt:         cc.UsedAt,
		IPAddress:      cc.IPAddress,
		UserAgent:      cc.UserAgent,
		CreatedAt:      cc.CreatedAt,
	}, nil
}

// Set stores the credential with TTL until its expiry and tracks it in the
// owning subject's set so subject-wide invalidation can clear the cache.
// Already-expired credentials are not cached.
func (c *Cache) Set(ctx context.Context, cred *domain.RefreshCredential) error {
	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedCredential{
		ID:             cred.ID,
		SubjectID:      cred.SubjectID,
		CredentialHash: cred.CredentialHash,
		ExpiresAt:      cred.ExpiresAt,
		Used:           cred.Used,
		UsedAt:         cred.UsedAt,
		IPAddress:      cred.IPAddress,
		UserAgent:      cred.UserAgent,
		CreatedAt:      cred.CreatedAt,
	})
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, credentialKeyPrefix+cred.ID, data, ttl)
	pipe.SAdd(ctx, subjectSetPrefix+cred.SubjectID, cred.ID)
	pipe.Expire(ctx, subjectSetPrefix+cred.SubjectID, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes the cached credential and its subject-set membership.
func (c *Cache) Delete(ctx context.Context, subjectID, id string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, credentialKeyPrefix+id)
	pipe.SRem(ctx, subjectSetPrefix+subjectID, id)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteAllForSubject clears every cached credential for subjectID except
// excludingID (which may be empty).
func (c *Cache) DeleteAllForSubject(ctx context.Context, subjectID, excludingID string) error {
	ids, err := c.rdb.SMembers(ctx, subjectSetPrefix+subjectID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := c.rdb.TxPipeline()
	for _, id := range ids {
		if id == excludingID {
			continue
		}
		pipe.Del(ctx, credentialKeyPrefix+id)
		pipe.SRem(ctx, subjectSetPrefix+subjectID, id)
	}
	if excludingID == "" {
		pipe.Del(ctx, subjectSetPrefix+subjectID)
	}
	_, err = pipe.Exec(ctx)
	return err
}
