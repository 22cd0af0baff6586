// Package queue wraps the asynq task queue used for verified-badge fan-out.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/athlinked/talent-verification-go/internal/config"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Client wraps an asynq client for enqueueing tasks.
type Client struct {
	asynqClient *asynq.Client
}

// NewClient creates a new queue client.
func NewClient(cfg *config.RedisConfig) *Client {
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Client{
		asynqClient: asynqClient,
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueSetVerifiedBadge enqueues a verified-badge task for the owner of a
// newly verified video. The task retries independently of the submission
// that triggered it.
func (c *Client) EnqueueSetVerifiedBadge(ctx context.Context, videoID, ownerID uuid.UUID) error {
	payload, err := NewSetVerifiedBadgeTask(videoID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeSetVerifiedBadge, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Queue("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Log.Info("Enqueued verified badge task",
		zap.String("videoId", videoID.String()),
		zap.String("ownerId", ownerID.String()),
		zap.String("taskId", info.ID),
	)

	return nil
}
