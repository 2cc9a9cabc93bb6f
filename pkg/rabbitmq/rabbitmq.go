package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DefaultInviteQueue is the queue an SMS gateway worker reads invites from.
const DefaultInviteQueue = "invite_queue"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// InviteEvent is the message published for every invite to be delivered.
type InviteEvent struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewInviteEvent creates an InviteEvent with a fresh ID.
func NewInviteEvent(destination, message string) InviteEvent {
	return InviteEvent{
		ID:          uuid.NewString(),
		Destination: destination,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
}

// DecodeInviteEvent parses a message body published by Send.
func DecodeInviteEvent(body []byte) (InviteEvent, error) {
	var event InviteEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return InviteEvent{}, fmt.Errorf("failed to decode invite event: %w", err)
	}
	if event.Destination == "" || event.Message == "" {
		return InviteEvent{}, fmt.Errorf("invite event %q is missing destination or message", event.ID)
	}
	return event, nil
}

// NewClient connects to RabbitMQ, opens a channel and declares the invite queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultInviteQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", zap.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", name, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Send publishes an invite for destination to the invite queue. The SMS
// gateway consuming the queue performs the actual delivery.
func (c *Client) Send(ctx context.Context, destination, message string) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	event := NewInviteEvent(destination, message)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal invite event: %w", err)
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.CreatedAt,
		})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish invite: %w", err)
	}

	c.logger.Debug("invite published", zap.String("event_id", event.ID), zap.String("queue", c.queue))
	return nil
}

// ConsumeInvites delivers each queued invite to handler until the channel
// closes. Messages are acked on success; undecodable messages are dropped and
// handler failures are requeued.
func (c *Client) ConsumeInvites(handler func(InviteEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for invite events", zap.String("queue", c.queue))

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.logger.Info("invite consumer stopped")
	}()

	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(InviteEvent) error) {
	event, err := DecodeInviteEvent(msg.Body)
	if err != nil {
		c.logger.Error("dropping malformed invite", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := handler(event); err != nil {
		c.logger.Warn("invite handler failed, requeueing", zap.String("event_id", event.ID), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack message", zap.String("event_id", event.ID), zap.Error(ackErr))
	}
}
