package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

// NewNotificationHandler prints status updates to out, or stdout when out
// is nil.
func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	if out == nil {
		out = os.Stdout
	}
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for session %s", msg.SessionID),
		"", map[string]interface{}{
			"session_id": msg.SessionID,
			"new_state":  msg.NewState,
		})

	line := fmt.Sprintf("Table %s (session %s): %s -> %s via %s by %s",
		msg.Table, msg.SessionID, msg.OldState, msg.NewState, msg.Action, msg.ChangedBy)
	if msg.OldState == msg.NewState {
		line = fmt.Sprintf("Table %s (session %s): %s updated via %s by %s",
			msg.Table, msg.SessionID, msg.NewState, msg.Action, msg.ChangedBy)
	}
	fmt.Fprintln(h.out, line)

	return nil
}
