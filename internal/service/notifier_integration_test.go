//go:build integration
// +build integration

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/athlinked/talent-verification-go/internal/config"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRabbitMQ(t *testing.T) (*config.RabbitMQConfig, func()) {
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start rabbitmq container: %v", err)
	}

	host, err := rabbitmqContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get host: %v", err)
	}

	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}

	cfg := &config.RabbitMQConfig{
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.talent.videos",
		Queue:      "test.talent.videos.verified",
		RoutingKey: "video.verified",
	}

	cleanup := func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cfg, cleanup
}

func TestNewEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	// Allow some time for RabbitMQ to be fully ready
	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg)
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer ep.Close()

	if !ep.IsHealthy() {
		t.Error("IsHealthy() = false after connect")
	}
}

func TestEventPublisher_PublishVerified(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg)
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer ep.Close()

	ctx := context.Background()
	event := &VerifiedEvent{
		VideoID:    uuid.New(),
		OwnerID:    uuid.New(),
		VerifiedAt: time.Now(),
	}

	if err := ep.PublishVerified(ctx, event); err != nil {
		t.Fatalf("PublishVerified() error = %v", err)
	}

	// Consume from the bound queue to verify routing and payload.
	connURL := fmt.Sprintf("amqp://guest:guest@%s:%d/", cfg.Host, cfg.Port)
	conn, err := amqp.Dial(connURL)
	if err != nil {
		t.Fatalf("consumer dial failed: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("consumer channel failed: %v", err)
	}
	defer ch.Close()

	msg, ok, err := ch.Get(cfg.Queue, true)
	if err != nil {
		t.Fatalf("queue get failed: %v", err)
	}
	if !ok {
		t.Fatal("no message routed to the verified queue")
	}

	var got VerifiedEvent
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("unmarshal delivered event: %v", err)
	}
	if got.VideoID != event.VideoID {
		t.Errorf("delivered VideoID = %s, want %s", got.VideoID, event.VideoID)
	}
	if got.OwnerID != event.OwnerID {
		t.Errorf("delivered OwnerID = %s, want %s", got.OwnerID, event.OwnerID)
	}
}

func TestEventPublisher_CloseMakesUnhealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	ep, err := NewEventPublisher(cfg)
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}

	if err := ep.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if ep.IsHealthy() {
		t.Error("IsHealthy() = true after Close")
	}
}
