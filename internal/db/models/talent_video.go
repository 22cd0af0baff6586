package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the lifecycle state of a talent video.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// TalentVideo represents an athlete-submitted performance clip awaiting
// community trust validation. Status is monotonic once verified; only the
// verification service flips it.
type TalentVideo struct {
	ID                   uuid.UUID          `db:"id"`
	OwnerID              uuid.UUID          `db:"owner_id"`
	Title                string             `db:"title"`
	Sport                string             `db:"sport"`
	SkillCategory        string             `db:"skill_category"`
	VideoURL             string             `db:"video_url"`
	ThumbnailURL         sql.NullString     `db:"thumbnail_url"`
	VerificationStatus   VerificationStatus `db:"verification_status"`
	VerificationGoal     int                `db:"verification_goal"`
	VerificationDeadline sql.NullTime       `db:"verification_deadline"`
	VerifiedAt           sql.NullTime       `db:"verified_at"`
	CreatedAt            time.Time          `db:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at"`
}

// NewTalentVideo creates a pending TalentVideo with the given goal.
// A goal below 1 is coerced to 1.
func NewTalentVideo(ownerID uuid.UUID, title, sport, skillCategory, videoURL string, goal int) *TalentVideo {
	if goal < 1 {
		goal = 1
	}
	now := time.Now()
	return &TalentVideo{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Title:              title,
		Sport:              sport,
		SkillCategory:      skillCategory,
		VideoURL:           videoURL,
		VerificationStatus: StatusPending,
		VerificationGoal:   goal,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsFinal reports whether the video has left the pending state.
func (v *TalentVideo) IsFinal() bool {
	return v.VerificationStatus != StatusPending
}

// DeadlinePassed reports whether the verification window has closed.
func (v *TalentVideo) DeadlinePassed(now time.Time) bool {
	return v.VerificationDeadline.Valid && now.After(v.VerificationDeadline.Time)
}
