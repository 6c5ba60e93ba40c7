// Package audit records every attempt to act on a session, accepted or not.
//
// The log is append-only. It makes no decisions and validates nothing; it is
// fed by the caller right after the lifecycle engine returns.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

// DefaultCapacity is how many recent entries the in-memory log retains.
const DefaultCapacity = 1000

// Filter narrows Entries. Zero fields match everything.
type Filter struct {
	UserID     string
	SessionID  string
	ActionKind domain.ActionKind
	TrustLevel *domain.TrustLevel
	Outcome    domain.Outcome
	Since      time.Time
	Until      time.Time
}

func (f Filter) match(e domain.AuditEntry) bool {
	if f.UserID != "" && e.Actor.ID != f.UserID {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.ActionKind != "" && e.Action.Type != f.ActionKind {
		return false
	}
	if f.TrustLevel != nil && e.ActorTrust != *f.TrustLevel {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Log is a bounded, append-only, in-memory audit trail. Once full, the
// oldest entries fall off.
type Log struct {
	mu       sync.RWMutex
	entries  []domain.AuditEntry
	capacity int
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

func (l *Log) Append(e domain.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.capacity; over > 0 {
		kept := make([]domain.AuditEntry, l.capacity)
		copy(kept, l.entries[over:])
		l.entries = kept
	}
}

// Name and Record make the log usable as a Sink.
func (l *Log) Name() string { return "memory" }

func (l *Log) Record(_ context.Context, e domain.AuditEntry) error {
	l.Append(e)
	return nil
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns matching entries, newest first. The result is a copy.
func (l *Log) Entries(f Filter) []domain.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.AuditEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		if f.match(l.entries[i]) {
			out = append(out, l.entries[i])
		}
	}
	return out
}

func (l *Log) Recent(limit int) []domain.AuditEntry {
	all := l.Entries(Filter{})
	if limit > 0 && len(all) > limit {
		return all[:limit]
	}
	return all
}

func (l *Log) SessionHistory(sessionID string) []domain.AuditEntry {
	return l.Entries(Filter{SessionID: sessionID})
}

func (l *Log) UserHistory(userID string) []domain.AuditEntry {
	return l.Entries(Filter{UserID: userID})
}

// TrustViolations lists attempts rejected for insufficient trust.
func (l *Log) TrustViolations() []domain.AuditEntry {
	all := l.Entries(Filter{Outcome: domain.OutcomeRejected})
	out := all[:0]
	for _, e := range all {
		if e.TrustViolation {
			out = append(out, e)
		}
	}
	return out
}

// Export renders the whole log, oldest first, as indented JSON.
func (l *Log) Export() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return json.MarshalIndent(l.entries, "", "  ")
}
