package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type sessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) interfaces.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, table_label, customer_label, seat_position, items, duration_min,
	eta_min, buffer_sec, zone, runner, state, created_at, updated_at, version`

func (r *sessionRepository) Create(ctx context.Context, s domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.Table, s.CustomerLabel, s.Position, s.Items, s.DurationMin,
		s.EtaMin, s.BufferSec, string(s.Zone), s.Runner, string(s.State), s.CreatedAt, s.UpdatedAt, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, &domain.NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// Update writes the mutable columns if the row is still at s.Version.
// Identity and created_at never change.
func (r *sessionRepository) Update(ctx context.Context, s domain.Session) error {
	query := `
		UPDATE sessions
		SET items = $1, duration_min = $2, eta_min = $3, buffer_sec = $4,
		    zone = $5, runner = $6, state = $7, updated_at = $8, version = version + 1
		WHERE id = $9 AND version = $10
	`
	tag, err := r.db.Exec(ctx, query,
		s.Items, s.DurationMin, s.EtaMin, s.BufferSec,
		string(s.Zone), s.Runner, string(s.State), s.UpdatedAt, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current int64
	err = r.db.QueryRow(ctx, `SELECT version FROM sessions WHERE id = $1`, s.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Resource: "session", ID: s.ID}
	}
	if err != nil {
		return fmt.Errorf("failed to check session version: %w", err)
	}
	return &domain.ConflictError{ID: s.ID, Version: s.Version}
}

func (r *sessionRepository) ListAll(ctx context.Context) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY updated_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

func scanSession(row Row) (domain.Session, error) {
	var (
		s     domain.Session
		zone  string
		state string
	)
	err := row.Scan(
		&s.ID, &s.Table, &s.CustomerLabel, &s.Position, &s.Items, &s.DurationMin,
		&s.EtaMin, &s.BufferSec, &zone, &s.Runner, &state, &s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		return domain.Session{}, err
	}
	s.Zone = domain.Zone(zone)
	s.State = domain.State(state)
	return s, nil
}
