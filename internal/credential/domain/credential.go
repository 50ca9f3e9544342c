package domain

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// ErrMalformedCredential is returned when a raw refresh credential cannot be decoded.
var ErrMalformedCredential = errors.New("malformed refresh credential")

const secretLen = 32

// RefreshCredential is the durable record of an issued refresh credential.
// The raw value is shown to the caller exactly once; only its hash is stored.
// Used is a one-way flag: once true, any further presentation of the same raw
// value is a replay.
type RefreshCredential struct {
	ID             string
	SubjectID      string
	CredentialHash string
	ExpiresAt      time.Time
	Used           bool
	UsedAt         *time.Time
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
}

// Expired reports whether the credential is past its expiry at the given time.
func (c *RefreshCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// DeviceMeta carries the client device metadata recorded with each credential.
type DeviceMeta struct {
	IPAddress string
	UserAgent string
}

// NewSecret returns a fresh cryptographically random credential secret,
// base64url-encoded.
func NewSecret() (string, error) {
	b := make([]byte, secretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodeRaw builds the opaque raw credential handed to the client:
// "<credentialID>.<secret>". The id half lets the server look the record up;
// the secret half is compared against the stored hash.
func EncodeRaw(credentialID, secret string) string {
	return credentialID + "." + secret
}

// DecodeRaw splits a raw credential into credential id and secret.
// Returns ErrMalformedCredential if either half is missing.
func DecodeRaw(raw string) (credentialID, secret string, err error) {
	id, sec, ok := strings.Cut(raw, ".")
	if !ok || id == "" || sec == "" {
		return "", "", ErrMalformedCredential
	}
	return id, sec, nil
}
