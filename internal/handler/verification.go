package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/athlinked/talent-verification-go/internal/middleware"
	"github.com/athlinked/talent-verification-go/internal/service"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionRequestDTO is the wire shape of one vote.
type SubmissionRequestDTO struct {
	VerifierName         string `json:"verifierName"`
	VerifierEmail        string `json:"verifierEmail"`
	VerifierRelationship string `json:"verifierRelationship"`
	VerificationMessage  string `json:"verificationMessage,omitempty"`
	DeviceFingerprint    string `json:"deviceFingerprint"`
	IPAddress            string `json:"ipAddress"`
}

// SubmissionResponseDTO is the wire shape of a submission outcome.
type SubmissionResponseDTO struct {
	Accepted         bool   `json:"accepted"`
	NewCount         int    `json:"newCount"`
	Goal             int    `json:"goal"`
	Status           string `json:"status"`
	ThresholdCrossed bool   `json:"thresholdCrossed"`
	Reason           string `json:"reason,omitempty"`
}

// VerificationSubmitter is the submission operation the handler drives.
type VerificationSubmitter interface {
	SubmitVerification(ctx context.Context, videoID uuid.UUID, req *service.SubmissionRequest, identity *service.Identity) (*service.SubmissionResult, error)
}

// VerificationHandler handles verification submission requests.
type VerificationHandler struct {
	verifications VerificationSubmitter
}

// NewVerificationHandler creates a new VerificationHandler instance.
func NewVerificationHandler(verifications VerificationSubmitter) *VerificationHandler {
	return &VerificationHandler{
		verifications: verifications,
	}
}

// HandleSubmit processes POST /api/v1/videos/:id/verifications.
func (h *VerificationHandler) HandleSubmit(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid video ID")
		return
	}

	var payload SubmissionRequestDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Log.Warn("Invalid request payload",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		writeBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	req := &service.SubmissionRequest{
		VerifierName:         payload.VerifierName,
		VerifierEmail:        payload.VerifierEmail,
		VerifierRelationship: payload.VerifierRelationship,
		VerificationMessage:  payload.VerificationMessage,
		DeviceFingerprint:    payload.DeviceFingerprint,
		IPAddress:            payload.IPAddress,
		UserAgent:            c.GetHeader("User-Agent"),
	}

	// The client-resolved IP is a weak signal to begin with; when the client
	// sends nothing, fall back to the server's view of the remote address.
	if strings.TrimSpace(req.IPAddress) == "" {
		req.IPAddress = h.clientIP(c)
	}

	var identity *service.Identity
	if userID, ok := middleware.UserID(c); ok {
		identity = &service.Identity{UserID: userID}
	}

	logger.Log.Info("Received verification submission",
		zap.String("videoId", videoID.String()),
		zap.String("relationship", payload.VerifierRelationship),
		zap.Bool("authenticated", identity != nil),
	)

	result, err := h.verifications.SubmitVerification(c.Request.Context(), videoID, req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Accepted {
		// Informational: already verified or window closed. Rendered as a
		// success-style response, not an error.
		status = http.StatusOK
	}

	c.JSON(status, SubmissionResponseDTO{
		Accepted:         result.Accepted,
		NewCount:         result.NewCount,
		Goal:             result.Goal,
		Status:           string(result.Status),
		ThresholdCrossed: result.ThresholdCrossed,
		Reason:           result.Reason,
	})
}

func (h *VerificationHandler) clientIP(c *gin.Context) string {
	// Check X-Forwarded-For header
	xff := c.GetHeader("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := c.GetHeader("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return c.ClientIP()
}
