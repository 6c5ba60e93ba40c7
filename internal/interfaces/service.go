package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

// Service interfaces (business logic)
type SessionService interface {
	Create(ctx context.Context, params domain.NewSessionParams) (domain.Session, error)
	Seed(ctx context.Context, count int, reset bool) (int, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Apply(ctx context.Context, cmd ApplyActionCommand) (domain.Session, error)
	AllowedActions(ctx context.Context, sessionID, userID string) ([]domain.ActionKind, error)
}

type TrackingService interface {
	GetSessionStatus(ctx context.Context, sessionID string) (*TrackingSessionResponse, error)
	GetSessionHistory(ctx context.Context, sessionID string) ([]domain.AuditEntry, error)
	GetStaff(ctx context.Context, userID string) (domain.DisplayInfo, error)
	ListStaff(ctx context.Context) ([]domain.User, error)
}

type DispatchService interface {
	ProcessCommand(ctx context.Context, msg ActionCommandMessage) error
}

// Commands

type ApplyActionCommand struct {
	SessionID string
	UserID    string
	Action    domain.Action
	RequestID string
}

// Tracking responses

type TrackingSessionResponse struct {
	SessionID        string
	Table            string
	CurrentState     domain.State
	UpdatedAt        time.Time
	EstimatedArrival *time.Time
	Runner           string
}
