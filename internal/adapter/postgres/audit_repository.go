package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// auditRepository mirrors audit entries into session_audit_log. The whole
// entry is kept as JSONB; the other columns exist for querying.
type auditRepository struct {
	db DB
}

func NewAuditRepository(db DB) interfaces.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Name() string { return "postgres" }

func (r *auditRepository) Record(ctx context.Context, e domain.AuditEntry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	query := `
		INSERT INTO session_audit_log (id, logged_at, session_id, user_id, user_trust, action_type,
		                               previous_state, new_state, outcome, code, trust_violation, entry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query,
		e.ID, e.Timestamp, e.SessionID, e.Actor.ID, e.ActorTrust.String(), string(e.Action.Type),
		string(e.PreviousState()), string(e.NewState()), string(e.Outcome), e.Code, e.TrustViolation, body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AuditEntry, error) {
	query := `
		SELECT entry FROM session_audit_log
		WHERE session_id = $1
		ORDER BY logged_at DESC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		var e domain.AuditEntry
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}
