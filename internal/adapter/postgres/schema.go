package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		table_label    TEXT NOT NULL,
		customer_label TEXT NOT NULL DEFAULT '',
		seat_position  TEXT NOT NULL DEFAULT '',
		items          INTEGER NOT NULL CHECK (items >= 0),
		duration_min   INTEGER NOT NULL CHECK (duration_min >= 0),
		eta_min        INTEGER NOT NULL CHECK (eta_min >= 0),
		buffer_sec     INTEGER NOT NULL CHECK (buffer_sec >= 0),
		zone           TEXT NOT NULL,
		runner         TEXT NOT NULL DEFAULT '',
		state          TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL CHECK (updated_at >= created_at),
		version        BIGINT NOT NULL DEFAULT 0
	)`,
	`ALTER TABLE sessions ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS sessions_updated_at_idx ON sessions (updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_audit_log (
		id              TEXT PRIMARY KEY,
		logged_at       TIMESTAMPTZ NOT NULL,
		session_id      TEXT NOT NULL,
		user_id         TEXT NOT NULL,
		user_trust      TEXT NOT NULL,
		action_type     TEXT NOT NULL,
		previous_state  TEXT NOT NULL,
		new_state       TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		code            TEXT NOT NULL DEFAULT '',
		trust_violation BOOLEAN NOT NULL DEFAULT FALSE,
		entry           JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_audit_log_session_idx ON session_audit_log (session_id, logged_at DESC)`,
}

// Migrate creates the tables the repositories need.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
