package security

// TestSigningKey is a fixed HMAC key for unit tests only. Do not use in production.
const TestSigningKey = "0123456789abcdef0123456789abcdef"

// NewTestTokenCodec returns a TokenCodec using the embedded test key.
// For unit tests only. Callers must not use in production.
func NewTestTokenCodec() *TokenCodec {
	return NewTokenCodec([]byte(TestSigningKey), "test-issuer", "test-audience")
}
