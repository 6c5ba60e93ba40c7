package interfaces

import (
	"context"

	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
)

// Repository interfaces (adapter/memory, adapter/postgres, adapter/sqlite).
// Lookups of missing records return *domain.NotFoundError.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	FindByID(ctx context.Context, id string) (domain.Session, error)
	// Update stores session only if the stored Version still equals
	// session.Version, and bumps the stored Version by one. A stale write
	// returns *domain.ConflictError.
	Update(ctx context.Context, session domain.Session) error
	// ListAll returns sessions, most recently updated first.
	ListAll(ctx context.Context) ([]domain.Session, error)
	Clear(ctx context.Context) error
}

type StaffRepository interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

// AuditRepository persists audit entries beyond the in-memory window.
type AuditRepository interface {
	audit.Sink
	ListBySession(ctx context.Context, sessionID string) ([]domain.AuditEntry, error)
}
