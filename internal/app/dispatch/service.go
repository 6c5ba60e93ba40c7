package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// Service applies action commands that arrive over the queue, the way a
// staff tablet or the mobile pre-order page would through the API.
type Service struct {
	sessions   interfaces.SessionService
	logger     logger.Logger
	workerName string
}

func NewService(sessions interfaces.SessionService, logger logger.Logger, workerName string) *Service {
	return &Service{
		sessions:   sessions,
		logger:     logger,
		workerName: workerName,
	}
}

// ProcessCommand applies one queued action. Rejections by the lifecycle
// engine and unknown sessions or users are wrapped with
// interfaces.ErrPermanent so the consumer dead-letters them; anything else,
// including a version conflict that outlived the service's retries, is
// returned as is and the message is requeued.
func (s *Service) ProcessCommand(ctx context.Context, msg interfaces.ActionCommandMessage) error {
	// A malformed payload is rejected and audited by the session service.
	action := domain.ParseAction(msg.Action)

	s.logger.Debug("command_processing_started", fmt.Sprintf("Applying %s to session %s", action.Kind(), msg.SessionID), msg.RequestID, map[string]interface{}{
		"worker":  s.workerName,
		"user_id": msg.UserID,
	})

	session, err := s.sessions.Apply(ctx, interfaces.ApplyActionCommand{
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Action:    action,
		RequestID: msg.RequestID,
	})
	if err != nil {
		if isRejection(err) {
			return fmt.Errorf("%w: %v", interfaces.ErrPermanent, err)
		}
		return err
	}

	s.logger.Debug("command_completed", fmt.Sprintf("Session %s is now %s", session.ID, session.State), msg.RequestID, nil)
	return nil
}

func isRejection(err error) bool {
	var (
		trustErr  *domain.TrustError
		actionErr *domain.ActionError
		notFound  *domain.NotFoundError
	)
	return errors.As(err, &trustErr) || errors.As(err, &actionErr) || errors.As(err, &notFound)
}
