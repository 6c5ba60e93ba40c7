package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

// RabbitMQ messages

type StatusUpdateMessage struct {
	SessionID string            `json:"session_id"`
	Table     string            `json:"table"`
	Action    domain.ActionKind `json:"action"`
	OldState  domain.State      `json:"old_state"`
	NewState  domain.State      `json:"new_state"`
	ChangedBy string            `json:"changed_by"`
	Timestamp time.Time         `json:"timestamp"`
	EtaMin    int               `json:"eta_min"`
}

// ActionCommandMessage asks the dispatch worker to apply an action on behalf
// of a staff member (tablet or mobile order).
type ActionCommandMessage struct {
	SessionID string                `json:"session_id"`
	UserID    string                `json:"user_id"`
	Action    domain.ActionEnvelope `json:"action"`
	RequestID string                `json:"request_id,omitempty"`
}

// Messaging interfaces (adapter/rabbitmq)
type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
	PublishAuditEntry(ctx context.Context, entry domain.AuditEntry) error
	PublishActionCommand(ctx context.Context, msg ActionCommandMessage) error
}

type MessageConsumer interface {
	ConsumeActions(ctx context.Context, handler ActionMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	ActionMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler  func(ctx context.Context, body []byte) error
)

// ErrPermanent marks a message that will never succeed; consumers
// dead-letter it instead of requeueing.
var ErrPermanent = errors.New("permanent message failure")
