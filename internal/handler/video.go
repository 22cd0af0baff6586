package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/athlinked/talent-verification-go/internal/db"
	"github.com/athlinked/talent-verification-go/internal/db/models"
	"github.com/athlinked/talent-verification-go/internal/db/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VideoResponseDTO is the read model for one talent video with its
// verification aggregate.
type VideoResponseDTO struct {
	ID                   string     `json:"id"`
	OwnerID              string     `json:"ownerId"`
	Title                string     `json:"title"`
	Sport                string     `json:"sport"`
	SkillCategory        string     `json:"skillCategory"`
	VideoURL             string     `json:"videoUrl"`
	ThumbnailURL         string     `json:"thumbnailUrl,omitempty"`
	VerificationStatus   string     `json:"verificationStatus"`
	VerificationCount    int        `json:"verificationCount"`
	VerificationGoal     int        `json:"verificationGoal"`
	VerificationDeadline *time.Time `json:"verificationDeadline,omitempty"`
	VerifiedAt           *time.Time `json:"verifiedAt,omitempty"`
}

// RecordResponseDTO is the audit-trail read model. It includes the fraud
// signature, so the listing endpoint sits behind API-key auth.
type RecordResponseDTO struct {
	ID                  string    `json:"id"`
	VerifierName        string    `json:"verifierName"`
	VerifierEmail       string    `json:"verifierEmail"`
	VerifierRelation    string    `json:"verifierRelationship"`
	VerificationMessage string    `json:"verificationMessage,omitempty"`
	DeviceFingerprint   string    `json:"deviceFingerprint"`
	IPAddress           string    `json:"ipAddress"`
	SubmittedAt         time.Time `json:"submittedAt"`
}

// VideoHandler serves talent-video reads and admin verification settings.
type VideoHandler struct {
	videos      repository.TalentVideoRepository
	records     repository.VerificationRecordRepository
	defaultGoal int
}

// NewVideoHandler creates a new VideoHandler instance. defaultGoal is the
// quorum target applied when a creation request does not name one.
func NewVideoHandler(videos repository.TalentVideoRepository, records repository.VerificationRecordRepository, defaultGoal int) *VideoHandler {
	if defaultGoal < 1 {
		defaultGoal = 1
	}
	return &VideoHandler{
		videos:      videos,
		records:     records,
		defaultGoal: defaultGoal,
	}
}

type createVideoDTO struct {
	OwnerID              string     `json:"ownerId"`
	Title                string     `json:"title"`
	Sport                string     `json:"sport"`
	SkillCategory        string     `json:"skillCategory"`
	VideoURL             string     `json:"videoUrl"`
	ThumbnailURL         string     `json:"thumbnailUrl"`
	VerificationGoal     int        `json:"verificationGoal"`
	VerificationDeadline *time.Time `json:"verificationDeadline"`
}

// HandleCreateVideo processes POST /api/v1/videos (API key). Uploads live
// elsewhere; this registers an already-stored clip as pending. A zero
// verificationGoal falls back to the configured default.
func (h *VideoHandler) HandleCreateVideo(c *gin.Context) {
	var payload createVideoDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		writeBadRequest(c, "Invalid owner ID")
		return
	}
	if payload.Title == "" || payload.VideoURL == "" {
		writeBadRequest(c, "title and videoUrl are required")
		return
	}
	if payload.VerificationGoal < 0 {
		writeBadRequest(c, "verificationGoal must not be negative")
		return
	}

	goal := payload.VerificationGoal
	if goal == 0 {
		goal = h.defaultGoal
	}

	video := models.NewTalentVideo(ownerID, payload.Title, payload.Sport, payload.SkillCategory, payload.VideoURL, goal)
	if payload.ThumbnailURL != "" {
		video.ThumbnailURL = sql.NullString{String: payload.ThumbnailURL, Valid: true}
	}
	if payload.VerificationDeadline != nil {
		video.VerificationDeadline = sql.NullTime{Time: *payload.VerificationDeadline, Valid: true}
	}

	if err := h.videos.CreateVideo(c.Request.Context(), video); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toVideoDTO(video, 0))
}

// HandleGetVideo processes GET /api/v1/videos/:id.
func (h *VideoHandler) HandleGetVideo(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid video ID")
		return
	}

	video, err := h.videos.GetVideoByID(c.Request.Context(), videoID)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Status:    http.StatusNotFound,
				Error:     "VideoNotFound",
				Message:   "The requested talent video does not exist.",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}
		writeServiceError(c, err)
		return
	}

	count, err := h.records.CountByVideo(c.Request.Context(), videoID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toVideoDTO(video, count))
}

// HandleListRecords processes GET /api/v1/videos/:id/verifications (API key).
func (h *VideoHandler) HandleListRecords(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid video ID")
		return
	}

	records, err := h.records.ListByVideo(c.Request.Context(), videoID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	out := make([]RecordResponseDTO, 0, len(records))
	for _, r := range records {
		out = append(out, RecordResponseDTO{
			ID:                  r.ID.String(),
			VerifierName:        r.VerifierName,
			VerifierEmail:       r.VerifierEmail,
			VerifierRelation:    string(r.VerifierRelation),
			VerificationMessage: r.VerificationMessage.String,
			DeviceFingerprint:   r.DeviceFingerprint,
			IPAddress:           r.IPAddress,
			SubmittedAt:         r.SubmittedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"records": out, "count": len(out)})
}

type goalUpdateDTO struct {
	VerificationGoal int `json:"verificationGoal"`
}

// HandleUpdateGoal processes PATCH /api/v1/videos/:id/verification-goal
// (API key). Only pending videos can be retargeted; a video that already
// crossed its goal stays verified regardless of later goal changes.
func (h *VideoHandler) HandleUpdateGoal(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid video ID")
		return
	}

	var payload goalUpdateDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if payload.VerificationGoal < 1 {
		writeBadRequest(c, "verificationGoal must be at least 1")
		return
	}

	if err := h.videos.SetVerificationGoal(c.Request.Context(), videoID, payload.VerificationGoal); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Status:    http.StatusConflict,
				Error:     "NotPending",
				Message:   "Video is missing or no longer pending; its goal cannot change.",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type deadlineUpdateDTO struct {
	VerificationDeadline *time.Time `json:"verificationDeadline"`
}

// HandleUpdateDeadline processes PATCH /api/v1/videos/:id/verification-deadline
// (API key). A null deadline reopens the window.
func (h *VideoHandler) HandleUpdateDeadline(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid video ID")
		return
	}

	var payload deadlineUpdateDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.videos.SetVerificationDeadline(c.Request.Context(), videoID, payload.VerificationDeadline); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Status:    http.StatusConflict,
				Error:     "NotPending",
				Message:   "Video is missing or no longer pending; its deadline cannot change.",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toVideoDTO(video *models.TalentVideo, count int) VideoResponseDTO {
	dto := VideoResponseDTO{
		ID:                 video.ID.String(),
		OwnerID:            video.OwnerID.String(),
		Title:              video.Title,
		Sport:              video.Sport,
		SkillCategory:      video.SkillCategory,
		VideoURL:           video.VideoURL,
		VerificationStatus: string(video.VerificationStatus),
		VerificationCount:  count,
		VerificationGoal:   video.VerificationGoal,
	}

	if video.ThumbnailURL.Valid {
		dto.ThumbnailURL = video.ThumbnailURL.String
	}
	if video.VerificationDeadline.Valid {
		t := video.VerificationDeadline.Time
		dto.VerificationDeadline = &t
	}
	if video.VerifiedAt.Valid {
		t := video.VerifiedAt.Time
		dto.VerifiedAt = &t
	}

	return dto
}
