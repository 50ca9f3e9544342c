package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashCredentialSecret returns a SHA-256 hash of the credential secret, hex-encoded.
// Used for storing and comparing refresh credentials without storing the raw value.
func HashCredentialSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// CredentialSecretEqual performs constant-time comparison of the provided secret's
// hash with the stored hash. Returns true only if they match.
func CredentialSecretEqual(providedSecret, storedHash string) bool {
	providedHash := HashCredentialSecret(providedSecret)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
