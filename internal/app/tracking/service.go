package tracking

import (
	"context"
	"time"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// Service answers read-side questions: where a session is, what happened to
// it and who the staff are.
type Service struct {
	sessions interfaces.SessionRepository
	staff    interfaces.StaffRepository
	log      *audit.Log
	history  interfaces.AuditRepository
	logger   logger.Logger
}

// NewService builds the read side. history may be nil, in which case session
// history comes from the in-memory log only.
func NewService(sessions interfaces.SessionRepository, staff interfaces.StaffRepository, log *audit.Log, history interfaces.AuditRepository, logger logger.Logger) *Service {
	return &Service{
		sessions: sessions,
		staff:    staff,
		log:      log,
		history:  history,
		logger:   logger,
	}
}

func (s *Service) GetSessionStatus(ctx context.Context, sessionID string) (*interfaces.TrackingSessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingSessionResponse{
		SessionID:    session.ID,
		Table:        session.Table,
		CurrentState: session.State,
		UpdatedAt:    session.UpdatedAt,
		Runner:       session.Runner,
	}

	if session.State == domain.StateOut {
		eta := session.UpdatedAt.Add(time.Duration(session.EtaMin)*time.Minute + time.Duration(session.BufferSec)*time.Second)
		resp.EstimatedArrival = &eta
	}

	return resp, nil
}

// GetSessionHistory returns the attempts made on a session, newest first.
// The persistent store is preferred because the in-memory log is bounded.
func (s *Service) GetSessionHistory(ctx context.Context, sessionID string) ([]domain.AuditEntry, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}

	if s.history != nil {
		entries, err := s.history.ListBySession(ctx, sessionID)
		if err == nil {
			return entries, nil
		}
		s.logger.Error("audit_history_failed", "Falling back to in-memory audit log", "", map[string]interface{}{
			"session_id": sessionID,
		}, err)
	}
	return s.log.SessionHistory(sessionID), nil
}

func (s *Service) GetStaff(ctx context.Context, userID string) (domain.DisplayInfo, error) {
	u, err := s.staff.FindByID(ctx, userID)
	if err != nil {
		return domain.DisplayInfo{}, err
	}
	return u.DisplayInfo(), nil
}

func (s *Service) ListStaff(ctx context.Context) ([]domain.User, error) {
	return s.staff.ListAll(ctx)
}
