package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

const (
	actionsQueue    = "session_actions"
	actionsDLX      = "actions_dlq"
	actionsDLQQueue = "session_actions_dlq"
)

type consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
	retry    time.Duration
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: logger, retry: 5 * time.Second}
}

func (c *consumer) ConsumeActions(ctx context.Context, handler interfaces.ActionMessageHandler) error {
	return c.run(ctx, "actions", func(ctx context.Context) error {
		return c.consumeActions(ctx, handler)
	})
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.run(ctx, "notifications", func(ctx context.Context) error {
		return c.consumeNotifications(ctx, handler)
	})
}

// run restarts consume until ctx is done, redialing when the broker
// dropped the connection.
func (c *consumer) run(ctx context.Context, name string, consume func(context.Context) error) error {
	for {
		err := consume(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Warn("consumer_disconnected", fmt.Sprintf("%s consumer disconnected, retrying in %s", name, c.retry), "", map[string]interface{}{
			"error": err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry):
		}

		if c.conn.IsClosed() {
			if err := c.conn.Reconnect(); err != nil {
				c.logger.Error("rabbitmq_reconnect_failed", "Failed to reconnect to RabbitMQ", "", nil, err)
			}
		}
	}
}

func (c *consumer) consumeActions(ctx context.Context, handler interfaces.ActionMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose(make(chan *amqp.Error, 1))

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupActionsInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(actionsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			settle(msg, handler(ctx, msg.Body))
		}
	}
}

// settle acks handled messages, dead-letters permanent failures and
// requeues the rest.
func settle(msg amqp.Delivery, err error) {
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, interfaces.ErrPermanent):
		msg.Nack(false, false)
	default:
		msg.Nack(false, true)
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose(make(chan *amqp.Error, 1))

	if err := ch.ExchangeDeclare(notificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", notificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			// Notifications are auto-acked; a bad one is only logged by the handler.
			_ = handler(ctx, msg.Body)
		}
	}
}

func setupActionsInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(actionsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare actions exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(actionsDLX, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(actionsDLQQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(actionsDLQQueue, "", actionsDLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": actionsDLX,
	}

	q, err := ch.QueueDeclare(actionsQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare actions queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "session.#", actionsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind actions queue: %w", err)
	}

	return nil
}
