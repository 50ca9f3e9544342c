package domain

import "time"

// AuditLog represents one recorded authentication event.
type AuditLog struct {
	ID        string
	SubjectID string // empty for events with no authenticated subject, e.g. failed logins
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the auth flows.
const (
	ActionRegister       = "register"
	ActionLogin          = "login"
	ActionLoginFailure   = "login_failure"
	ActionTokenRefresh   = "token_refresh"
	ActionReplayDetected = "replay_detected"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
)

// ResourceAuth is the resource name for token lifecycle events.
const ResourceAuth = "auth"
