// Package events emits security events for downstream consumers (SIEM,
// alerting) over Kafka. Emission is best-effort and never blocks or fails the
// authentication flow that produced the event.
package events

import "time"

// Event types published to the security topic.
const (
	TypeReplayDetected   = "token_replay_detected"
	TypeMassInvalidation = "mass_invalidation"
	TypeLoginFailure     = "login_failure"
	TypePasswordChanged  = "password_changed"
)

// SecurityEvent is one security-relevant occurrence in the token lifecycle.
type SecurityEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	SubjectID  string            `json:"subject_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
