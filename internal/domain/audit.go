package domain

import (
	"errors"
	"time"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// AuditEntry records one attempt to act on a session. Entries are built once
// and never changed afterwards.
type AuditEntry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Actor      User           `json:"actor"`
	ActorTrust TrustLevel     `json:"actor_trust"`
	Action     ActionEnvelope `json:"action"`
	SessionID  string         `json:"session_id"`
	Table      string         `json:"table"`
	Before     Session        `json:"before"`
	After      *Session       `json:"after,omitempty"`
	Outcome    Outcome        `json:"outcome"`
	// Code is ACTION_NOT_ALLOWED, INVALID_PAYLOAD, INSUFFICIENT_TRUST,
	// CONFLICT, ACTION_ERROR or empty for accepted attempts.
	Code           string `json:"code,omitempty"`
	Reason         string `json:"reason,omitempty"`
	TrustViolation bool   `json:"trust_violation"`
}

const CodeInsufficientTrust = "INSUFFICIENT_TRUST"

// PreviousState is the state the session was in when the attempt was made.
func (e AuditEntry) PreviousState() State {
	return e.Before.State
}

// NewState is the resulting state, or the previous one when rejected.
func (e AuditEntry) NewState() State {
	if e.After == nil {
		return e.Before.State
	}
	return e.After.State
}

// RejectionCode classifies a rejection error for the audit trail.
func RejectionCode(err error) string {
	var trustErr *TrustError
	if errors.As(err, &trustErr) {
		return CodeInsufficientTrust
	}
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Code
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return CodeConflict
	}
	return "ACTION_ERROR"
}
