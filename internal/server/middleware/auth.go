// Package middleware holds the gin middleware for the auth server.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"school-admin-platform/backend/internal/security"
	"school-admin-platform/backend/internal/server/respond"
	tokenservice "school-admin-platform/backend/internal/token/service"
)

const bearerPrefix = "bearer "

// Context keys set by Auth for downstream handlers.
const (
	CtxSubjectID = "subject_id"
	CtxJTI       = "jti"
	CtxClaims    = "claims"
)

// AccessValidator validates a raw access token and returns the owning subject.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, accessToken string) (string, string, security.CustomClaims, error)
}

// Auth returns gin middleware that validates the Bearer access token and sets
// subject_id, jti, and claims on the request context. Requests without a valid
// token are rejected; expired tokens get a distinct error code so clients know
// to refresh.
func Auth(validator AccessValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			respond.AbortError(c, http.StatusUnauthorized, respond.CodeInvalidToken, "missing or invalid authorization")
			return
		}
		subjectID, jti, claims, err := validator.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, tokenservice.ErrTokenExpired) {
				respond.AbortError(c, http.StatusUnauthorized, respond.CodeTokenExpired, "access token expired")
				return
			}
			respond.AbortError(c, http.StatusUnauthorized, respond.CodeInvalidToken, "missing or invalid authorization")
			return
		}
		c.Set(CtxSubjectID, subjectID)
		c.Set(CtxJTI, jti)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// SubjectID returns the authenticated subject set by Auth, or "" if absent.
func SubjectID(c *gin.Context) string {
	return c.GetString(CtxSubjectID)
}

// JTI returns the session identifier set by Auth, or "" if absent.
func JTI(c *gin.Context) string {
	return c.GetString(CtxJTI)
}

// extractBearer returns the Bearer token from the header value, or "" if
// missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
