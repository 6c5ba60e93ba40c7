package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
	"github.com/YelzhanWeb/hookah/internal/lifecycle"
	"github.com/YelzhanWeb/hookah/internal/metrics"
)

// Service owns the session collection and is its only mutator. It is the
// caller the lifecycle engine expects: it loads a snapshot, asks the engine
// for the next one, stores it and records the attempt.
type Service struct {
	sessions  interfaces.SessionRepository
	staff     interfaces.StaffRepository
	engine    *lifecycle.Engine
	recorder  *audit.Recorder
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	locks     *keyedMutex
	now       func() time.Time
	rnd       *rand.Rand
}

type Option func(*Service)

// WithClock sets the clock used for new sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand makes seeding deterministic.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// NewService wires the service. publisher may be nil when messaging is off.
func NewService(
	sessions interfaces.SessionRepository,
	staff interfaces.StaffRepository,
	engine *lifecycle.Engine,
	recorder *audit.Recorder,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		sessions:  sessions,
		staff:     staff,
		engine:    engine,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       time.Now,
		rnd:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, params domain.NewSessionParams) (domain.Session, error) {
	session, err := domain.NewSession(params, s.now())
	if err != nil {
		return domain.Session{}, &domain.ActionError{Code: domain.CodeInvalidPayload, Msg: "validation failed: " + err.Error()}
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("db_create_failed", "Failed to create session", "", nil, err)
		return domain.Session{}, err
	}

	s.logger.Debug("session_created", "Session created", "", map[string]interface{}{
		"session_id": session.ID,
		"table":      session.Table,
	})
	return session, nil
}

var (
	seedStates    = []domain.State{domain.StateReady, domain.StateOut, domain.StateDelivered, domain.StateActive}
	seedPositions = []string{"Main (2,3)", "Bar (3,1)", "Patio (1,4)"}
)

// Seed generates count demo sessions spread over the lounge, optionally
// wiping the collection first. It returns the resulting total.
func (s *Service) Seed(ctx context.Context, count int, reset bool) (int, error) {
	if count < 0 || count > 500 {
		return 0, &domain.ActionError{Code: domain.CodeInvalidPayload, Msg: "count must be between 0 and 500"}
	}
	if reset {
		if err := s.sessions.Clear(ctx); err != nil {
			return 0, fmt.Errorf("failed to clear sessions: %w", err)
		}
	}

	zones := domain.Zones()
	for i := 0; i < count; i++ {
		session, err := domain.NewSession(domain.NewSessionParams{
			Table:         fmt.Sprintf("T-%d", 1+s.rnd.IntN(12)),
			CustomerLabel: fmt.Sprintf("customer_%d", 100+s.rnd.IntN(900)),
			Position:      seedPositions[s.rnd.IntN(len(seedPositions))],
			Items:         1 + s.rnd.IntN(3),
			DurationMin:   s.rnd.IntN(60),
			EtaMin:        []int{2, 3, 5}[s.rnd.IntN(3)],
			BufferSec:     []int{5, 10, 15}[s.rnd.IntN(3)],
			Zone:          zones[s.rnd.IntN(len(zones))],
		}, s.now())
		if err != nil {
			return 0, err
		}
		session.State = seedStates[s.rnd.IntN(len(seedStates))]

		if err := s.sessions.Create(ctx, session); err != nil {
			return 0, fmt.Errorf("failed to store seeded session: %w", err)
		}
	}
	metrics.RecordSeeded(count)

	all, err := s.sessions.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("sessions_seeded", "Demo sessions generated", "", map[string]interface{}{
		"count": count,
		"reset": reset,
		"total": len(all),
	})
	return len(all), nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.sessions.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.ListAll(ctx)
}

// maxSaveAttempts bounds how often Apply reloads and recomputes a session
// after another process wrote it first.
const maxSaveAttempts = 3

// Apply runs one action attempt against the stored session. Attempts on the
// same session are serialised within the process; across processes the
// store's version check refuses stale writes and Apply recomputes from the
// fresh snapshot. Every attempt that reaches the engine leaves exactly one
// audit entry; unknown users and sessions fail before that with
// *domain.NotFoundError.
func (s *Service) Apply(ctx context.Context, cmd interfaces.ApplyActionCommand) (domain.Session, error) {
	user, err := s.staff.FindByID(ctx, cmd.UserID)
	if err != nil {
		return domain.Session{}, err
	}

	unlock := s.locks.lock(cmd.SessionID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		current, err := s.sessions.FindByID(ctx, cmd.SessionID)
		if err != nil {
			return domain.Session{}, err
		}

		next, err := s.engine.NextStateWithTrust(current, cmd.Action, user)
		if err != nil {
			s.recorder.LogAction(ctx, user, cmd.Action, current, nil, err)
			s.logger.Info("action_rejected", "Session action rejected", cmd.RequestID, map[string]interface{}{
				"session_id": current.ID,
				"user_id":    user.ID,
				"state":      current.State,
				"code":       domain.RejectionCode(err),
			})
			return domain.Session{}, err
		}

		err = s.sessions.Update(ctx, next)
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && attempt < maxSaveAttempts {
			s.logger.Debug("session_conflict", "Session changed concurrently, retrying", cmd.RequestID, map[string]interface{}{
				"session_id": current.ID,
				"version":    current.Version,
				"attempt":    attempt,
			})
			continue
		}
		if err != nil {
			saveErr := fmt.Errorf("failed to save session: %w", err)
			s.recorder.LogAction(ctx, user, cmd.Action, current, nil, saveErr)
			s.logger.Error("db_update_failed", "Failed to save session", cmd.RequestID, map[string]interface{}{
				"session_id": current.ID,
			}, err)
			return domain.Session{}, saveErr
		}
		next.Version = current.Version + 1

		entry := s.recorder.LogAction(ctx, user, cmd.Action, current, &next, nil)
		s.logger.Debug("action_applied", "Session action applied", cmd.RequestID, map[string]interface{}{
			"session_id": next.ID,
			"action":     entry.Action.String(),
			"old_state":  current.State,
			"new_state":  next.State,
			"user_id":    user.ID,
		})

		s.notify(ctx, current, next, cmd.Action.Kind(), user, cmd.RequestID)

		return next, nil
	}
}

// AllowedActions lists what userID may do to the session right now.
func (s *Service) AllowedActions(ctx context.Context, sessionID, userID string) ([]domain.ActionKind, error) {
	user, err := s.staff.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return lifecycle.PermittedActions(user, current.State), nil
}

func (s *Service) notify(ctx context.Context, before, after domain.Session, kind domain.ActionKind, user domain.User, requestID string) {
	if s.publisher == nil {
		return
	}

	msg := interfaces.StatusUpdateMessage{
		SessionID: after.ID,
		Table:     after.Table,
		Action:    kind,
		OldState:  before.State,
		NewState:  after.State,
		ChangedBy: user.Name,
		Timestamp: after.UpdatedAt,
		EtaMin:    after.EtaMin,
	}

	// Notification failures must not undo an applied transition.
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", requestID, map[string]interface{}{
			"session_id": after.ID,
		}, err)
	}
}

// IsNotFound reports whether err is a missing session or user.
func IsNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}
