package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session represents one customer's order at a table, from preparation
// through delivery to billing.
//
// Session is a value type. Copying it yields an independent snapshot, which
// is what the lifecycle engine relies on to never mutate its input.
type Session struct {
	ID            string    `json:"id"`
	Table         string    `json:"table"`
	CustomerLabel string    `json:"customer_label"`
	Position      string    `json:"position"`
	Items         int       `json:"items"`
	DurationMin   int       `json:"duration_min"`
	EtaMin        int       `json:"eta_min"`
	BufferSec     int       `json:"buffer_sec"`
	Zone          Zone      `json:"zone"`
	Runner        string    `json:"runner,omitempty"`
	State         State     `json:"state"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	// Version counts stored revisions. Stores refuse an update whose
	// Version differs from the stored one.
	Version int64 `json:"version"`
}

// NewSessionParams carries the descriptive attributes of a new session.
type NewSessionParams struct {
	Table         string
	CustomerLabel string
	Position      string
	Items         int
	DurationMin   int
	EtaMin        int
	BufferSec     int
	Zone          Zone
}

// NewSession creates a READY session with a fresh id.
func NewSession(p NewSessionParams, now time.Time) (Session, error) {
	s := Session{
		ID:            uuid.NewString(),
		Table:         p.Table,
		CustomerLabel: p.CustomerLabel,
		Position:      p.Position,
		Items:         p.Items,
		DurationMin:   p.DurationMin,
		EtaMin:        p.EtaMin,
		BufferSec:     p.BufferSec,
		Zone:          p.Zone,
		State:         StateReady,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if s.Zone == "" {
		s.Zone = ZoneA
	}

	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate applies the session invariants.
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if len(s.Table) < 1 || len(s.Table) > 20 {
		return errors.New("table must be 1-20 characters")
	}
	if !s.State.Valid() {
		return ErrInvalidState
	}
	if !s.Zone.Valid() {
		return ErrInvalidZone
	}
	if s.Items < 0 || s.DurationMin < 0 || s.EtaMin < 0 || s.BufferSec < 0 {
		return errors.New("session counters must not be negative")
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		return errors.New("updated_at precedes created_at")
	}
	return nil
}

var (
	ErrInvalidState = errors.New("invalid session state")
	ErrInvalidZone  = errors.New("invalid delivery zone")
)
