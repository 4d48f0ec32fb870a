package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
)

const baseReconnectDelay = 1 * time.Second

// Consumer listens to RabbitMQ and dispatches SubmissionMessages (with ack callbacks) to a
// channel. Messages are acked by the worker pool after the verdict is stored.
type Consumer struct {
	url      string
	conn     *amqp.Connection
	channel  *amqp.Channel
	prefetch int
	logger   *zap.Logger
	out      chan<- *domain.SubmissionMessage

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

// NewConsumer dials the broker. prefetch bounds unacknowledged deliveries; use the pool size.
func NewConsumer(url string, prefetch int, out chan<- *domain.SubmissionMessage, logger *zap.Logger) (*Consumer, error) {
	if prefetch < 1 {
		prefetch = 1
	}
	c := &Consumer{
		url:      url,
		prefetch: prefetch,
		logger:   logger,
		out:      out,
		closeCh:  make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Consumer) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: channel: %w", err)
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: qos: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	return nil
}

// Start begins consuming messages. It blocks until the context is cancelled or Close is
// called, reconnecting with exponential backoff when the connection drops.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-c.closeCh:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		c.logger.Warn("AMQP consumer lost connection, reconnecting...", zap.Error(err))

		for attempt := 0; ; attempt++ {
			delay := time.Duration(math.Min(
				float64(baseReconnectDelay)*math.Pow(2, float64(attempt)),
				float64(maxReconnectDelay),
			))
			c.logger.Info("Reconnect attempt",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)

			select {
			case <-c.closeCh:
				return nil
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}

			if err := c.connect(); err != nil {
				c.logger.Error("Reconnect failed", zap.Error(err))
				continue
			}

			c.logger.Info("Reconnected to RabbitMQ")
			break
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("channel is nil")
	}

	deliveries, err := ch.Consume(
		queueName,
		"",    // auto-generated consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	c.logger.Info("AMQP consumer started", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("AMQP consumer stopping (context cancelled)")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			msg, err := decodeDelivery(delivery)
			if err != nil {
				c.logger.Error("Failed to decode submission",
					zap.Error(err),
					zap.String("message_id", delivery.MessageId),
				)
				_ = delivery.Nack(false, false) // reject → DLQ
				continue
			}

			c.logger.Debug("Received submission from queue",
				zap.String("submission_id", msg.Submission.ID.String()),
				zap.String("language", msg.Submission.Language),
			)

			select {
			case c.out <- msg:
			case <-ctx.Done():
				// Shutting down; requeue for another worker.
				_ = delivery.Nack(false, true)
				return nil
			}
		}
	}
}

// acknowledger is the part of amqp.Delivery the message callbacks need.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func decodeDelivery(d amqp.Delivery) (*domain.SubmissionMessage, error) {
	return decode(d.Body, d)
}

func decode(body []byte, ack acknowledger) (*domain.SubmissionMessage, error) {
	var s domain.Submission
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("submission without id")
	}
	return &domain.SubmissionMessage{
		Submission: &s,
		Ack: func() error {
			return ack.Ack(false)
		},
		Nack: func(requeue bool) error {
			return ack.Nack(false, requeue)
		},
	}, nil
}

// Close gracefully shuts down the consumer.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closeCh)

	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
