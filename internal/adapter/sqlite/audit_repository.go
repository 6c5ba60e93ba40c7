// Package sqlite keeps the audit trail in a local SQLite file for
// deployments that run without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

// Fixed-width UTC timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository opens (or creates) the database at path and applies
// the schema.
func NewAuditRepository(path string) (*AuditRepository, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	r := &AuditRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *AuditRepository) Close() error { return r.db.Close() }

func (r *AuditRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_audit_log (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		id              TEXT NOT NULL UNIQUE,
		logged_at       TEXT NOT NULL,
		session_id      TEXT NOT NULL,
		user_id         TEXT NOT NULL,
		action_type     TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		code            TEXT NOT NULL DEFAULT '',
		trust_violation INTEGER NOT NULL DEFAULT 0,
		entry           TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_session ON session_audit_log(session_id, logged_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *AuditRepository) Name() string { return "sqlite" }

func (r *AuditRepository) Record(ctx context.Context, e domain.AuditEntry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session_audit_log (id, logged_at, session_id, user_id, action_type, outcome, code, trust_violation, entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(timeLayout), e.SessionID, e.Actor.ID, string(e.Action.Type),
		string(e.Outcome), e.Code, e.TrustViolation, string(body),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListBySession returns the session's entries, newest first.
func (r *AuditRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry FROM session_audit_log
		WHERE session_id = ?
		ORDER BY logged_at DESC, seq DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var e domain.AuditEntry
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (r *AuditRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_audit_log`).Scan(&n)
	return n, err
}
