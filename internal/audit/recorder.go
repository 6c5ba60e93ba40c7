package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/metrics"
)

// Sink receives finished audit entries.
type Sink interface {
	Name() string
	Record(ctx context.Context, e domain.AuditEntry) error
}

// Recorder builds audit entries and hands them to every sink. Recording is
// best effort: a failing sink is logged and counted, never surfaced.
type Recorder struct {
	sinks  []Sink
	logger logger.Logger
	now    func() time.Time
}

func NewRecorder(lgr logger.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logger: lgr, now: time.Now}
}

// LogAction records one attempt. after is nil and cause non-nil when the
// engine rejected the action.
func (r *Recorder) LogAction(ctx context.Context, user domain.User, action domain.Action, before domain.Session, after *domain.Session, cause error) domain.AuditEntry {
	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		Timestamp:  r.now(),
		Actor:      user,
		ActorTrust: user.TrustLevel(),
		SessionID:  before.ID,
		Table:      before.Table,
		Before:     before,
		Outcome:    domain.OutcomeAccepted,
	}
	if action != nil {
		entry.Action = domain.EncodeAction(action)
	}

	if cause != nil || after == nil {
		entry.Outcome = domain.OutcomeRejected
		if cause != nil {
			entry.Code = domain.RejectionCode(cause)
			entry.Reason = cause.Error()
		}
		entry.TrustViolation = entry.Code == domain.CodeInsufficientTrust
	} else {
		snapshot := *after
		entry.After = &snapshot
	}

	kind := string(entry.Action.Type)
	if !entry.Action.Type.Valid() {
		kind = "UNKNOWN"
	}
	metrics.RecordTransition(kind, string(entry.Outcome))
	if entry.Code != "" {
		metrics.RecordRejection(entry.Code)
	}

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, entry); err != nil {
			metrics.RecordAuditSinkError(sink.Name())
			r.logger.Error("audit_sink_failed", "Failed to record audit entry", "", map[string]interface{}{
				"sink":     sink.Name(),
				"entry_id": entry.ID,
			}, err)
		}
	}

	return entry
}
