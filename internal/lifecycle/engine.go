// Package lifecycle moves hookah sessions through preparation, delivery and
// billing. Transitions are gated first by the acting user's trust level and
// then by the session's current state.
//
// Everything here is pure apart from reading the clock: the input session is
// never modified, and the caller decides what to persist and audit.
package lifecycle

import (
	"time"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

// Engine computes session transitions.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now as the source of UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NextStateWithTrust returns the session that results from user applying
// action to s. On rejection it returns the zero Session and one of
// *domain.TrustError or *domain.ActionError. A domain.Malformed action is
// checked for trust and state like its kind and then rejected with its
// payload error.
func (e *Engine) NextStateWithTrust(s domain.Session, action domain.Action, user domain.User) (domain.Session, error) {
	if action == nil {
		return domain.Session{}, &domain.ActionError{Code: domain.CodeInvalidPayload, State: s.State, Msg: "action is required"}
	}
	kind := action.Kind()

	// An unknown kind has no trust requirement or state rule to check.
	if m, ok := action.(domain.Malformed); ok && !kind.Valid() {
		return domain.Session{}, m.Err
	}

	required := RequiredTrust(kind)
	if !HasTrustLevel(user.TrustLevel(), required) {
		return domain.Session{}, &domain.TrustError{Kind: kind, Required: required, Actual: user.TrustLevel()}
	}

	if !IsAllowed(s.State, kind) {
		return domain.Session{}, domain.NewNotAllowedError(kind, s.State)
	}

	if err := validatePayload(action); err != nil {
		return domain.Session{}, err
	}

	next := apply(s, action)

	now := e.now()
	if now.Before(next.CreatedAt) {
		now = next.CreatedAt
	}
	next.UpdatedAt = now

	return next, nil
}

// NextState applies action ignoring trust. The state table is still
// enforced.
func (e *Engine) NextState(s domain.Session, action domain.Action) (domain.Session, error) {
	return e.NextStateWithTrust(s, action, systemUser)
}

var systemUser = domain.User{ID: "system", Name: "system", Role: domain.RoleOwner}

var defaultEngine = NewEngine()

// NextStateWithTrust runs the transition on an engine backed by the wall clock.
func NextStateWithTrust(s domain.Session, action domain.Action, user domain.User) (domain.Session, error) {
	return defaultEngine.NextStateWithTrust(s, action, user)
}

func validatePayload(action domain.Action) error {
	switch a := action.(type) {
	case domain.Malformed:
		return a.Err
	case domain.SetBuffer:
		if a.Seconds < 0 {
			return domain.NewPayloadError(a.Kind(), "buffer must not be negative, got %d", a.Seconds)
		}
	case domain.SetZone:
		if !a.Zone.Valid() {
			return domain.NewPayloadError(a.Kind(), "unknown zone %q", a.Zone)
		}
	case domain.AddItem:
		if a.Count <= 0 {
			return domain.NewPayloadError(a.Kind(), "count must be positive, got %d", a.Count)
		}
	case domain.ExtendMin:
		if a.Minutes <= 0 {
			return domain.NewPayloadError(a.Kind(), "minutes must be positive, got %d", a.Minutes)
		}
	case domain.ReassignRunner:
		if a.Runner == "" {
			return domain.NewPayloadError(a.Kind(), "runner is required")
		}
	}
	return nil
}

// apply works on a copy; s is passed by value.
func apply(s domain.Session, action domain.Action) domain.Session {
	switch a := action.(type) {
	case domain.SetBuffer:
		s.BufferSec = a.Seconds
	case domain.SetZone:
		s.Zone = a.Zone
	case domain.AddItem:
		s.Items += a.Count
	case domain.ExtendMin:
		s.DurationMin += a.Minutes
	case domain.ReassignRunner:
		s.Runner = a.Runner
	case domain.Undo:
		// IsAllowed already excluded READY and CANCELLED
		if prev, ok := undoTarget(s.State); ok {
			s.State = prev
		}
	default:
		if target, ok := forwardTarget(a.Kind()); ok {
			s.State = target
		}
		if s.State == domain.StateOut && s.EtaMin < 1 {
			s.EtaMin = 1
		}
	}
	return s
}
