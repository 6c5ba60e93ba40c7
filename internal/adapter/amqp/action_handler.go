package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type ActionHandler struct {
	service interfaces.DispatchService
	logger  logger.Logger
}

func NewActionHandler(service interfaces.DispatchService, logger logger.Logger) *ActionHandler {
	return &ActionHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAction decodes a queued action command and dispatches it. A body
// that is not a command is never retried.
func (h *ActionHandler) HandleAction(ctx context.Context, body []byte) error {
	var msg interfaces.ActionCommandMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse action command", "", nil, err)
		return fmt.Errorf("%w: %v", interfaces.ErrPermanent, err)
	}
	if msg.SessionID == "" || msg.UserID == "" {
		h.logger.Warn("message_invalid", "Action command without session or user", msg.RequestID, nil)
		return fmt.Errorf("%w: session_id and user_id are required", interfaces.ErrPermanent)
	}

	return h.service.ProcessCommand(ctx, msg)
}
