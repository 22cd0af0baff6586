// Package handler provides the HTTP surface for talent-video verification.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/athlinked/talent-verification-go/internal/service"
	"github.com/athlinked/talent-verification-go/internal/validation"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the common error body.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// writeServiceError maps typed service errors onto HTTP responses.
// Informational outcomes (AlreadyFinal, VerificationClosed) never reach this
// function; they are regular 200 responses with accepted=false.
func writeServiceError(c *gin.Context, err error) {
	path := c.Request.URL.Path

	var fieldErr *validation.FieldError
	var dupErr *service.DuplicateVerificationError

	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:    http.StatusBadRequest,
			Error:     "ValidationError",
			Message:   fieldErr.Error(),
			Field:     fieldErr.Field,
			Timestamp: time.Now(),
			Path:      path,
		})

	case errors.Is(err, service.ErrPrecheckIncomplete):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Status:    http.StatusUnprocessableEntity,
			Error:     "PrecheckIncomplete",
			Message:   "Device signals are still resolving; wait and resubmit.",
			Retryable: true,
			Timestamp: time.Now(),
			Path:      path,
		})

	case errors.Is(err, service.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Status:    http.StatusNotFound,
			Error:     "VideoNotFound",
			Message:   "The requested talent video does not exist.",
			Timestamp: time.Now(),
			Path:      path,
		})

	case errors.Is(err, service.ErrSelfVerification):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Status:    http.StatusForbidden,
			Error:     "SelfVerificationForbidden",
			Message:   "You cannot verify your own video.",
			Timestamp: time.Now(),
			Path:      path,
		})

	case errors.As(err, &dupErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Status:    http.StatusConflict,
			Error:     "DuplicateVerification",
			Message:   dupErr.Error(),
			Timestamp: time.Now(),
			Path:      path,
		})

	default:
		logger.Log.Error("submission failed",
			zap.Error(err),
			zap.String("path", path),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:    http.StatusInternalServerError,
			Error:     "Internal Server Error",
			Message:   "Failed to process verification submission",
			Timestamp: time.Now(),
			Path:      path,
		})
	}
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Status:    http.StatusBadRequest,
		Error:     "Bad Request",
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
