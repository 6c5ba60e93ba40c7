package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

const (
	notificationsExchange = "notifications_fanout"
	auditExchange         = "audit_topic"
	actionsExchange       = "actions_topic"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return p.publish(ctx, notificationsExchange, "fanout", "", msg, amqp.Transient)
}

// PublishAuditEntry routes entries as audit.<outcome>.<action>, so a
// compliance consumer can bind to audit.rejected.# alone.
func (p *publisher) PublishAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	key := AuditRoutingKey(entry)
	return p.publish(ctx, auditExchange, "topic", key, entry, amqp.Persistent)
}

func (p *publisher) PublishActionCommand(ctx context.Context, msg interfaces.ActionCommandMessage) error {
	key := ActionRoutingKey(msg.Action.Type)
	return p.publish(ctx, actionsExchange, "topic", key, msg, amqp.Persistent)
}

func AuditRoutingKey(entry domain.AuditEntry) string {
	return fmt.Sprintf("audit.%s.%s", entry.Outcome, strings.ToLower(string(entry.Action.Type)))
}

func ActionRoutingKey(kind domain.ActionKind) string {
	return "session." + strings.ToLower(string(kind))
}

func (p *publisher) publish(ctx context.Context, exchange, kind, key string, payload any, mode uint8) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// AuditSink forwards audit entries to the audit exchange.
type AuditSink struct {
	publisher interfaces.MessagePublisher
}

func NewAuditSink(publisher interfaces.MessagePublisher) *AuditSink {
	return &AuditSink{publisher: publisher}
}

func (s *AuditSink) Name() string { return "rabbitmq" }

func (s *AuditSink) Record(ctx context.Context, e domain.AuditEntry) error {
	return s.publisher.PublishAuditEntry(ctx, e)
}
