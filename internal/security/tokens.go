package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, unsigned, or fails signature verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's signature verifies but its exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
)

// CustomClaims carries the fixed application claims embedded in every access token.
// The role set is captured at issuance and not re-read at verification; a role
// revoked mid-session stays effective until the access token expires.
type CustomClaims struct {
	Language string   `json:"lang,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	CustomClaims
}

// TokenCodec issues and verifies HS256-signed access tokens with a server-held
// symmetric key. It is stateless: Verify checks signature and expiry only and
// never consults the session registry; whether a verified token is still
// honored is the caller's decision.
type TokenCodec struct {
	key      []byte
	issuer   string
	audience string
}

// NewTokenCodec returns a TokenCodec signing with the given symmetric key.
// issuer and audience are set on claims and validated on Verify.
func NewTokenCodec(key []byte, issuer, audience string) *TokenCodec {
	return &TokenCodec{key: key, issuer: issuer, audience: audience}
}

// Issue issues a signed access token for subjectID with the given claims and ttl.
// Returns the token string, its fresh jti, and expiration time.
func (c *TokenCodec) Issue(subjectID string, custom CustomClaims, ttl time.Duration) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subjectID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CustomClaims: custom,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(c.key)
	return token, jti, expiresAt, err
}

// Verify parses and verifies the access token (signature, exp, iss, aud).
// Returns subjectID, jti, and the custom claims. An expired but otherwise
// well-signed token yields ErrTokenExpired; anything else ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (subjectID, jti string, custom CustomClaims, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", CustomClaims{}, ErrTokenExpired
		}
		return "", "", CustomClaims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", "", CustomClaims{}, ErrInvalidToken
	}
	if claims.Issuer != c.issuer {
		return "", "", CustomClaims{}, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == c.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return "", "", CustomClaims{}, ErrInvalidToken
	}
	return claims.Subject, claims.ID, claims.CustomClaims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
