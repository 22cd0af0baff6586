package queue

import (
	"context"
	"fmt"

	"github.com/athlinked/talent-verification-go/internal/service/profile"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BadgeSetter is the profile-service operation the worker drives. The
// receiving endpoint is idempotent: setting the badge twice is harmless,
// which is the defense-in-depth behind the at-most-once CAS upstream.
type BadgeSetter interface {
	SetVerifiedBadge(ctx context.Context, ownerID string) error
}

var _ BadgeSetter = (*profile.Client)(nil)

// Handler processes verified-badge tasks.
type Handler struct {
	badges BadgeSetter
}

// NewHandler creates a task handler backed by the given profile client.
func NewHandler(badges BadgeSetter) *Handler {
	return &Handler{badges: badges}
}

// Register attaches the handler's task types to an asynq mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSetVerifiedBadge, h.HandleSetVerifiedBadge)
}

// HandleSetVerifiedBadge sets the owner's verified badge. Returning an error
// hands the task back to asynq for retry.
func (h *Handler) HandleSetVerifiedBadge(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalSetVerifiedBadgePayload(task.Payload())
	if err != nil {
		// Malformed payloads never succeed; skip retries.
		return fmt.Errorf("unmarshal badge payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.badges.SetVerifiedBadge(ctx, payload.OwnerID.String()); err != nil {
		logger.Log.Warn("Verified badge update failed, will retry",
			zap.String("ownerId", payload.OwnerID.String()),
			zap.String("videoId", payload.VideoID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("set verified badge: %w", err)
	}

	logger.Log.Info("Verified badge set",
		zap.String("ownerId", payload.OwnerID.String()),
		zap.String("videoId", payload.VideoID.String()),
	)

	return nil
}
