package repository

import (
	"context"
	"time"

	"github.com/athlinked/talent-verification-go/internal/db"
	"github.com/athlinked/talent-verification-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TalentVideoRepository defines operations for managing talent videos.
// The verification service is the only writer of verification_status.
type TalentVideoRepository interface {
	// CreateVideo inserts a new talent video in the pending state.
	CreateVideo(ctx context.Context, video *models.TalentVideo) error

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.TalentVideo, error)

	// GetVideoForUpdate retrieves a video and takes its row lock. Inside a
	// transaction this serializes concurrent submissions for the same
	// video: the count and the threshold transition act on a stable row,
	// and the caller sees the current goal and status rather than a
	// pre-transaction snapshot.
	GetVideoForUpdate(ctx context.Context, videoID uuid.UUID) (*models.TalentVideo, error)

	// GetVideosByOwner retrieves all videos submitted by an athlete.
	GetVideosByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.TalentVideo, error)

	// TrySetVerified is the compare-and-set primitive for the terminal
	// transition. It flips pending -> verified and returns false if the
	// status was no longer pending, so the transition fires at most once
	// even under concurrent submissions.
	TrySetVerified(ctx context.Context, videoID uuid.UUID) (bool, error)

	// SetVerificationGoal updates the quorum target for a pending video.
	SetVerificationGoal(ctx context.Context, videoID uuid.UUID, goal int) error

	// SetVerificationDeadline sets or clears the voting deadline.
	SetVerificationDeadline(ctx context.Context, videoID uuid.UUID, deadline *time.Time) error

	// WithTx returns the repository bound to the given transaction.
	WithTx(tx pgx.Tx) TalentVideoRepository
}

type talentVideoRepository struct {
	q Querier
}

// NewTalentVideoRepository creates a new TalentVideoRepository.
func NewTalentVideoRepository(q Querier) TalentVideoRepository {
	return &talentVideoRepository{q: q}
}

func (r *talentVideoRepository) WithTx(tx pgx.Tx) TalentVideoRepository {
	return &talentVideoRepository{q: tx}
}

const talentVideoColumns = `
	id, owner_id, title, sport, skill_category, video_url, thumbnail_url,
	verification_status, verification_goal, verification_deadline, verified_at,
	created_at, updated_at`

func (r *talentVideoRepository) CreateVideo(ctx context.Context, video *models.TalentVideo) error {
	query := `
		INSERT INTO talent_videos (id, owner_id, title, sport, skill_category, video_url, thumbnail_url,
		                           verification_status, verification_goal, verification_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.Sport,
		video.SkillCategory,
		video.VideoURL,
		video.ThumbnailURL,
		video.VerificationStatus,
		video.VerificationGoal,
		video.VerificationDeadline,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create talent video")
	}

	return nil
}

func (r *talentVideoRepository) GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.TalentVideo, error) {
	query := `SELECT` + talentVideoColumns + `
		FROM talent_videos
		WHERE id = $1
	`

	video := &models.TalentVideo{}
	err := r.q.QueryRow(ctx, query, videoID).Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Sport,
		&video.SkillCategory,
		&video.VideoURL,
		&video.ThumbnailURL,
		&video.VerificationStatus,
		&video.VerificationGoal,
		&video.VerificationDeadline,
		&video.VerifiedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get talent video by id")
	}

	return video, nil
}

func (r *talentVideoRepository) GetVideoForUpdate(ctx context.Context, videoID uuid.UUID) (*models.TalentVideo, error) {
	query := `SELECT` + talentVideoColumns + `
		FROM talent_videos
		WHERE id = $1
		FOR UPDATE
	`

	video := &models.TalentVideo{}
	err := r.q.QueryRow(ctx, query, videoID).Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Sport,
		&video.SkillCategory,
		&video.VideoURL,
		&video.ThumbnailURL,
		&video.VerificationStatus,
		&video.VerificationGoal,
		&video.VerificationDeadline,
		&video.VerifiedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get talent video for update")
	}

	return video, nil
}

func (r *talentVideoRepository) GetVideosByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.TalentVideo, error) {
	query := `SELECT` + talentVideoColumns + `
		FROM talent_videos
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, db.WrapError(err, "get videos by owner")
	}
	defer rows.Close()

	return scanTalentVideos(rows)
}

func (r *talentVideoRepository) TrySetVerified(ctx context.Context, videoID uuid.UUID) (bool, error) {
	query := `
		UPDATE talent_videos
		SET verification_status = 'verified',
		    verified_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND verification_status = 'pending'
	`

	cmdTag, err := r.q.Exec(ctx, query, videoID)
	if err != nil {
		return false, db.WrapError(err, "set video verified")
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (r *talentVideoRepository) SetVerificationGoal(ctx context.Context, videoID uuid.UUID, goal int) error {
	query := `
		UPDATE talent_videos
		SET verification_goal = $2,
		    updated_at = NOW()
		WHERE id = $1 AND verification_status = 'pending'
	`

	cmdTag, err := r.q.Exec(ctx, query, videoID, goal)
	if err != nil {
		return db.WrapError(err, "set verification goal")
	}

	if cmdTag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "set verification goal")
	}

	return nil
}

func (r *talentVideoRepository) SetVerificationDeadline(ctx context.Context, videoID uuid.UUID, deadline *time.Time) error {
	query := `
		UPDATE talent_videos
		SET verification_deadline = $2,
		    updated_at = NOW()
		WHERE id = $1 AND verification_status = 'pending'
	`

	cmdTag, err := r.q.Exec(ctx, query, videoID, deadline)
	if err != nil {
		return db.WrapError(err, "set verification deadline")
	}

	if cmdTag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "set verification deadline")
	}

	return nil
}

// Helper function to scan multiple talent videos from query results
func scanTalentVideos(rows pgx.Rows) ([]*models.TalentVideo, error) {
	var videos []*models.TalentVideo

	for rows.Next() {
		video := &models.TalentVideo{}
		err := rows.Scan(
			&video.ID,
			&video.OwnerID,
			&video.Title,
			&video.Sport,
			&video.SkillCategory,
			&video.VideoURL,
			&video.ThumbnailURL,
			&video.VerificationStatus,
			&video.VerificationGoal,
			&video.VerificationDeadline,
			&video.VerifiedAt,
			&video.CreatedAt,
			&video.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan talent video")
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate talent videos")
	}

	return videos, nil
}
