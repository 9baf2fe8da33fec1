package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/config"
	"github.com/ideeockus/capybanse-service/internal/metrics"
)

// RPC request queues served by the recommendation service.
const (
	QueueRecommendationsByUser = "recommendations.requests.by_user"
	QueueSetUserDescription    = "resonanse_api.requests.set_user_description"
)

// EventQueues carry scraped events from the upstream providers.
var EventQueues = []string{
	"events.kudago",
	"events.timepad",
	"events.resonanse",
	"events.networkly",
}

// messageTimeout is the deadline one message gets end to end, external
// calls included.
const messageTimeout = 30 * time.Second

// RPCHandler produces the reply payload for one request body. A nil
// error with a nil payload, or any error, drops the message without a
// reply.
type RPCHandler func(ctx context.Context, body []byte) ([]byte, error)

// MessageHandler processes one fire-and-forget message.
type MessageHandler func(ctx context.Context, body []byte) error

// Bus is one AMQP connection with a single channel. The channel
// prefetch bounds how many messages are in flight at once, which is the
// service's admission control.
type Bus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

func Connect(cfg *config.RabbitMQConfig, m *metrics.Metrics, logger *logrus.Logger) (*Bus, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	// A large prefetch depletes the store connection pools under load.
	if err := channel.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set channel prefetch: %w", err)
	}

	logger.WithField("prefetch", cfg.Prefetch).Info("RabbitMQ connection established")

	return &Bus{
		conn:    conn,
		channel: channel,
		metrics: m,
		logger:  logger,
	}, nil
}

func (b *Bus) Close() error {
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	b.logger.Info("RabbitMQ connection closed")
	return nil
}

// ConsumeRPC serves one durable request queue: each delivery is handled
// in its own goroutine, the reply is published to reply_to on the
// default exchange carrying the request's correlation_id, and the
// delivery is acknowledged only after processing completes.
func (b *Bus) ConsumeRPC(ctx context.Context, queue string, handler RPCHandler) error {
	deliveries, err := b.consume(queue)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				go b.handleRPC(ctx, queue, delivery, handler)
			}
		}
	}()

	b.logger.WithField("queue", queue).Info("Consuming RPC queue")
	return nil
}

// Consume serves one durable fire-and-forget queue. Failed messages are
// rejected without requeue; upstream providers re-publish periodically.
func (b *Bus) Consume(ctx context.Context, queue string, handler MessageHandler) error {
	deliveries, err := b.consume(queue)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				go b.handleMessage(ctx, queue, delivery, handler)
			}
		}
	}()

	b.logger.WithField("queue", queue).Info("Consuming queue")
	return nil
}

func (b *Bus) consume(queue string) (<-chan amqp.Delivery, error) {
	if _, err := b.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	deliveries, err := b.channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume queue %s: %w", queue, err)
	}
	return deliveries, nil
}

func (b *Bus) handleRPC(ctx context.Context, queue string, delivery amqp.Delivery, handler RPCHandler) {
	start := time.Now()
	defer func() {
		b.metrics.RPCDuration.WithLabelValues(queue).Observe(time.Since(start).Seconds())
	}()

	msgCtx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	if delivery.ReplyTo == "" {
		b.logger.WithField("queue", queue).Warn("Message has no reply_to, dropping")
		b.metrics.DroppedMessages.WithLabelValues(queue, "no_reply_to").Inc()
		b.ack(queue, delivery)
		return
	}

	response, err := handler(msgCtx, delivery.Body)
	if err != nil || response == nil {
		if err != nil {
			b.logger.WithError(err).WithField("queue", queue).Warn("Dropping malformed request")
		}
		b.metrics.DroppedMessages.WithLabelValues(queue, "malformed").Inc()
		b.ack(queue, delivery)
		return
	}

	err = b.channel.PublishWithContext(msgCtx, "", delivery.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: delivery.CorrelationId,
		Body:          response,
	})
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"queue":    queue,
			"reply_to": delivery.ReplyTo,
		}).Error("Failed to publish RPC reply")
		b.metrics.RPCRequests.WithLabelValues(queue, "reply_failed").Inc()
	} else {
		b.metrics.RPCRequests.WithLabelValues(queue, "ok").Inc()
	}

	b.ack(queue, delivery)
}

func (b *Bus) handleMessage(ctx context.Context, queue string, delivery amqp.Delivery, handler MessageHandler) {
	msgCtx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	if err := handler(msgCtx, delivery.Body); err != nil {
		b.logger.WithError(err).WithField("queue", queue).Warn("Message handling failed, rejecting")
		if err := delivery.Nack(false, false); err != nil {
			b.logger.WithError(err).WithField("queue", queue).Error("Failed to nack message")
		}
		return
	}

	b.ack(queue, delivery)
}

func (b *Bus) ack(queue string, delivery amqp.Delivery) {
	if err := delivery.Ack(false); err != nil {
		b.logger.WithError(err).WithField("queue", queue).Error("Failed to ack message")
	}
}
