package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/athlinked/talent-verification-go/internal/config"
	"github.com/athlinked/talent-verification-go/internal/metrics"
	"github.com/athlinked/talent-verification-go/internal/queue"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// VerifiedEvent is the domain event published when a video crosses its
// verification goal.
type VerifiedEvent struct {
	VideoID    uuid.UUID `json:"video_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// EventPublisher publishes verified events to RabbitMQ with publisher
// confirms.
type EventPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

// NewEventPublisher connects to RabbitMQ and declares the verified-event
// exchange and queue.
func NewEventPublisher(cfg *config.RabbitMQConfig) (*EventPublisher, error) {
	ep := &EventPublisher{
		config: cfg,
	}

	if err := ep.connect(); err != nil {
		return nil, err
	}

	return ep, nil
}

func (ep *EventPublisher) connect() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		ep.config.User, ep.config.Password, ep.config.Host, ep.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ep.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		ep.config.Queue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-message-ttl": 86400000, // 24 hours
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		ep.config.Queue,      // queue name
		ep.config.RoutingKey, // routing key
		ep.config.Exchange,   // exchange
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	ep.conn = conn
	ep.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", ep.config.Exchange),
		zap.String("queue", ep.config.Queue),
	)

	return nil
}

// PublishVerified publishes one verified event and waits for the broker
// confirmation.
func (ep *EventPublisher) PublishVerified(ctx context.Context, event *VerifiedEvent) error {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	if ep.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	confirms := ep.channel.NotifyPublish(make(chan amqp.Confirmation, 1))

	err = ep.channel.PublishWithContext(
		ctx,
		ep.config.Exchange,   // exchange
		ep.config.RoutingKey, // routing key
		true,                 // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    event.VideoID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	// Wait for confirmation with timeout
	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return fmt.Errorf("message was not acknowledged by broker")
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.Log.Debug("Published verified event",
		zap.String("videoId", event.VideoID.String()),
		zap.String("routingKey", ep.config.RoutingKey),
	)

	return nil
}

// Close closes the publisher's channel and connection.
func (ep *EventPublisher) Close() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	var errs []error
	if ep.channel != nil {
		if err := ep.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if ep.conn != nil {
		if err := ep.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the RabbitMQ connection is usable.
func (ep *EventPublisher) IsHealthy() bool {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	return ep.conn != nil && !ep.conn.IsClosed() && ep.channel != nil
}

// VerifiedNotifier fans out the at-most-once verified transition: a domain
// event on RabbitMQ for downstream consumers and an asynq task that sets the
// owner's verified badge. Neither delivery is transactional with the vote;
// the badge task carries the retry policy and the badge endpoint is
// idempotent.
type VerifiedNotifier struct {
	publisher *EventPublisher
	tasks     *queue.Client
}

// NewVerifiedNotifier creates the fan-out notifier. Either side may be nil
// when the corresponding transport is not configured.
func NewVerifiedNotifier(publisher *EventPublisher, tasks *queue.Client) *VerifiedNotifier {
	return &VerifiedNotifier{
		publisher: publisher,
		tasks:     tasks,
	}
}

// OnVerified publishes the verified event and enqueues the badge task.
// Failures are reported for logging but leave the verification intact.
func (n *VerifiedNotifier) OnVerified(ctx context.Context, videoID, ownerID uuid.UUID) error {
	var errs []error

	if n.publisher != nil {
		event := &VerifiedEvent{
			VideoID:    videoID,
			OwnerID:    ownerID,
			VerifiedAt: time.Now(),
		}
		if err := n.publisher.PublishVerified(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publish verified event: %w", err))
		}
	}

	if n.tasks != nil {
		if err := n.tasks.EnqueueSetVerifiedBadge(ctx, videoID, ownerID); err != nil {
			errs = append(errs, fmt.Errorf("enqueue badge task: %w", err))
		}
	}

	if len(errs) > 0 {
		metrics.NotificationFailures.Inc()
		return fmt.Errorf("verified fan-out: %v", errs)
	}

	return nil
}
