package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type staffRepository struct {
	db DB
}

func NewStaffRepository(db DB) interfaces.StaffRepository {
	return &staffRepository{db: db}
}

// SeedStaff inserts users that are not present yet, in one transaction.
func SeedStaff(ctx context.Context, db DB, users []domain.User) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO staff (id, name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	for _, u := range users {
		if _, err := tx.Exec(ctx, query, u.ID, u.Name, string(u.Role)); err != nil {
			return fmt.Errorf("failed to seed staff %s: %w", u.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *staffRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT id, name, role FROM staff WHERE id = $1`

	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, &domain.NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *staffRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, name, role FROM staff ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff: %w", err)
	}
	return users, nil
}
