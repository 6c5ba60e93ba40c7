package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// sessionRepository keeps sessions keyed by id. Values are stored and
// returned as copies, so callers never share state with the store.
type sessionRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Session
}

func NewSessionRepository() interfaces.SessionRepository {
	return &sessionRepository{byID: make(map[string]domain.Session)}
}

func (r *sessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	r.byID[session.ID] = session
	return nil
}

func (r *sessionRepository) FindByID(_ context.Context, id string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return domain.Session{}, &domain.NotFoundError{Resource: "session", ID: id}
	}
	return s, nil
}

func (r *sessionRepository) Update(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[session.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "session", ID: session.ID}
	}
	if stored.Version != session.Version {
		return &domain.ConflictError{ID: session.ID, Version: session.Version}
	}
	session.Version++
	r.byID[session.ID] = session
	return nil
}

func (r *sessionRepository) ListAll(_ context.Context) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *sessionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]domain.Session)
	return nil
}
