package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker reports whether an attached transport is usable.
type HealthChecker interface {
	IsHealthy() bool
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	pool      *pgxpool.Pool
	publisher HealthChecker
}

// NewHealthHandler creates a new HealthHandler. publisher may be nil when
// RabbitMQ is not configured.
func NewHealthHandler(pool *pgxpool.Pool, publisher HealthChecker) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		publisher: publisher,
	}
}

// HandleHealth verifies database connectivity and, when configured, the
// event publisher.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
	}

	status := gin.H{
		"status":   "healthy",
		"database": "connected",
		"time":     time.Now(),
	}

	if h.publisher != nil {
		if h.publisher.IsHealthy() {
			status["rabbitmq"] = "connected"
		} else {
			status["rabbitmq"] = "disconnected"
		}
	}

	c.JSON(http.StatusOK, status)
}
