package service

import (
	"time"

	credentialdomain "school-admin-platform/backend/internal/credential/domain"
)

// Decision classifies a refresh credential lookup result.
type Decision int

const (
	// DecisionNotFound: no record for the presented id.
	DecisionNotFound Decision = iota
	// DecisionReplay: the record exists but was already consumed. This is the
	// intrusion signal: one-time-use means a second presentation proves either
	// theft or a lost benign race, and both get the same remediation.
	DecisionReplay
	// DecisionExpired: the record is live but past expiry.
	DecisionExpired
	// DecisionValid: the record is live and usable.
	DecisionValid
)

// EvaluateReplay is the pure decision function over a credential lookup
// result. The used check deliberately precedes the expiry check: replaying an
// expired-but-consumed credential is still evidence of theft.
func EvaluateReplay(rec *credentialdomain.RefreshCredential, now time.Time) Decision {
	switch {
	case rec == nil:
		return DecisionNotFound
	case rec.Used:
		return DecisionReplay
	case rec.Expired(now):
		return DecisionExpired
	default:
		return DecisionValid
	}
}
