package domain

import "time"

// SessionEntry is the durable record behind one live access token. The entry,
// not the token's signature, is the authority for whether the token is still
// honored: deleting the entry revokes the token regardless of its expiry.
type SessionEntry struct {
	JTI            string // access token id; primary key
	SubjectID      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time // mirrors the access token expiry
}

// Expired reports whether the entry is past its expiry at the given time.
func (s *SessionEntry) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
