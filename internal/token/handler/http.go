// Package handler exposes the token lifecycle over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"school-admin-platform/backend/internal/audit"
	auditdomain "school-admin-platform/backend/internal/audit/domain"
	authservice "school-admin-platform/backend/internal/auth/service"
	credentialdomain "school-admin-platform/backend/internal/credential/domain"
	"school-admin-platform/backend/internal/events"
	"school-admin-platform/backend/internal/server/middleware"
	"school-admin-platform/backend/internal/server/respond"
	tokenservice "school-admin-platform/backend/internal/token/service"
)

// Lifecycle is the slice of the token lifecycle the HTTP handler drives.
type Lifecycle interface {
	Refresh(ctx context.Context, rawRefresh string, meta credentialdomain.DeviceMeta) (*tokenservice.TokenPair, error)
	Logout(ctx context.Context, subjectID string) error
}

// AuthHandler serves registration, login, refresh, logout, and password change.
type AuthHandler struct {
	auth      *authservice.AuthService
	lifecycle Lifecycle
	auditor   audit.AuditLogger
	emitter   events.Emitter // may be nil
}

// NewAuthHandler returns an AuthHandler with the given dependencies.
// emitter may be nil; security events are then not published.
func NewAuthHandler(auth *authservice.AuthService, lifecycle Lifecycle, auditor audit.AuditLogger, emitter events.Emitter) *AuthHandler {
	return &AuthHandler{auth: auth, lifecycle: lifecycle, auditor: auditor, emitter: emitter}
}

type registerInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	// RefreshToken identifies the credential of the current session so it
	// alone survives the password change. Optional; when absent every
	// credential of the subject is invalidated.
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	user, err := h.auth.Register(c.Request.Context(), input.Email, input.Password, input.Name, input.Language)
	if err != nil {
		if errors.Is(err, authservice.ErrEmailAlreadyRegistered) {
			respond.Error(c, http.StatusConflict, respond.CodeEmailTaken, err.Error())
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	h.auditor.LogEvent(c.Request.Context(), user.ID, auditdomain.ActionRegister, auditdomain.ResourceAuth, c.ClientIP(), "")
	respond.Success(c, gin.H{"userId": user.ID, "email": user.Email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	meta := deviceMeta(c)
	pair, user, err := h.auth.Login(c.Request.Context(), input.Email, input.Password, meta)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			h.auditor.LogEvent(c.Request.Context(), "", auditdomain.ActionLoginFailure, auditdomain.ResourceAuth, meta.IPAddress, input.Email)
			events.EmitAsync(h.emitter, c.Request.Context(), &events.SecurityEvent{
				ID:         uuid.New().String(),
				Type:       events.TypeLoginFailure,
				IP:         meta.IPAddress,
				UserAgent:  meta.UserAgent,
				Metadata:   map[string]string{"email": input.Email},
				OccurredAt: time.Now().UTC(),
			})
			respond.Error(c, http.StatusUnauthorized, respond.CodeInvalidCredentials, "invalid credentials")
			return
		}
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "internal error")
		return
	}
	h.auditor.LogEvent(c.Request.Context(), user.ID, auditdomain.ActionLogin, auditdomain.ResourceAuth, meta.IPAddress, "")
	respond.Success(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresInSeconds,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"name":     user.Name,
			"language": user.Language,
			"roles":    user.Roles,
		},
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	meta := deviceMeta(c)
	pair, err := h.lifecycle.Refresh(c.Request.Context(), input.RefreshToken, meta)
	if err != nil {
		h.writeRefreshError(c, err, meta)
		return
	}
	h.auditor.LogEvent(c.Request.Context(), "", auditdomain.ActionTokenRefresh, auditdomain.ResourceAuth, meta.IPAddress, "")
	respond.Success(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresInSeconds,
	})
}

func (h *AuthHandler) writeRefreshError(c *gin.Context, err error, meta credentialdomain.DeviceMeta) {
	switch {
	case errors.Is(err, tokenservice.ErrReplayDetected):
		// The lifecycle's notifier has already recorded the incident with the
		// owning subject; here only the transport mapping remains.
		respond.Error(c, http.StatusUnauthorized, respond.CodeReplayDetected, "refresh credential replay detected; all sessions revoked")
	case errors.Is(err, tokenservice.ErrTokenExpired):
		respond.Error(c, http.StatusUnauthorized, respond.CodeTokenExpired, "refresh credential expired")
	case errors.Is(err, tokenservice.ErrTokenInvalid):
		respond.Error(c, http.StatusUnauthorized, respond.CodeInvalidToken, "invalid refresh credential")
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "internal error")
	}
}

// Logout invalidates every session and refresh credential of the caller.
// Requires a valid access token; repeated logouts are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	subjectID := middleware.SubjectID(c)
	if err := h.lifecycle.Logout(c.Request.Context(), subjectID); err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "internal error")
		return
	}
	h.auditor.LogEvent(c.Request.Context(), subjectID, auditdomain.ActionLogout, auditdomain.ResourceAuth, c.ClientIP(), "")
	respond.Success(c, gin.H{"loggedOut": true})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	subjectID := middleware.SubjectID(c)
	jti := middleware.JTI(c)

	currentCredentialID := ""
	if input.RefreshToken != "" {
		if id, _, err := credentialdomain.DecodeRaw(input.RefreshToken); err == nil {
			currentCredentialID = id
		}
	}

	err := h.auth.ChangePassword(c.Request.Context(), subjectID, input.CurrentPassword, input.NewPassword, jti, currentCredentialID)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, respond.CodeInvalidCredentials, "invalid credentials")
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	h.auditor.LogEvent(c.Request.Context(), subjectID, auditdomain.ActionPasswordChange, auditdomain.ResourceAuth, c.ClientIP(), "")
	events.EmitAsync(h.emitter, c.Request.Context(), &events.SecurityEvent{
		ID:         uuid.New().String(),
		Type:       events.TypePasswordChanged,
		SubjectID:  subjectID,
		IP:         c.ClientIP(),
		OccurredAt: time.Now().UTC(),
	})
	respond.Success(c, gin.H{"changed": true})
}

// Session reports the authenticated subject of the presented access token.
func (h *AuthHandler) Session(c *gin.Context) {
	respond.Success(c, gin.H{
		"subjectId": middleware.SubjectID(c),
		"sessionId": middleware.JTI(c),
	})
}

func deviceMeta(c *gin.Context) credentialdomain.DeviceMeta {
	return credentialdomain.DeviceMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
