package repository

import (
	"context"
	"errors"

	"github.com/athlinked/talent-verification-go/internal/db"
	"github.com/athlinked/talent-verification-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MatchedSignal names which fraud signal collided on a duplicate vote.
type MatchedSignal string

const (
	MatchDevice MatchedSignal = "device"
	MatchIP     MatchedSignal = "ip"
	MatchBoth   MatchedSignal = "both"
)

// Conflict describes an existing record that shares a fraud signature with a
// prospective vote. Only the original verifier's display name is exposed;
// email, fingerprint and IP stay private.
type Conflict struct {
	Signal       MatchedSignal
	VerifierName string
}

// VerificationRecordRepository defines operations over the append-only vote
// audit trail. Uniqueness of (video_id, device_fingerprint) and
// (video_id, ip_address) is enforced by the database, so InsertRecord is the
// authoritative duplicate check; FindConflict only exists to produce a
// friendlier message and never authorizes a write.
type VerificationRecordRepository interface {
	// InsertRecord inserts an accepted vote. A fraud-signature collision
	// surfaces as db.ErrDuplicateDevice or db.ErrDuplicateIP.
	InsertRecord(ctx context.Context, record *models.VerificationRecord) error

	// FindConflict reports which signal an existing record shares with the
	// given fingerprint/IP pair, or nil if neither collides.
	FindConflict(ctx context.Context, videoID uuid.UUID, fingerprint, ipAddress string) (*Conflict, error)

	// CountByVideo returns the number of accepted votes for a video.
	CountByVideo(ctx context.Context, videoID uuid.UUID) (int, error)

	// ListByVideo returns the audit trail for a video, newest first.
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.VerificationRecord, error)

	// WithTx returns the repository bound to the given transaction.
	WithTx(tx pgx.Tx) VerificationRecordRepository
}

type verificationRecordRepository struct {
	q Querier
}

// NewVerificationRecordRepository creates a new VerificationRecordRepository.
func NewVerificationRecordRepository(q Querier) VerificationRecordRepository {
	return &verificationRecordRepository{q: q}
}

func (r *verificationRecordRepository) WithTx(tx pgx.Tx) VerificationRecordRepository {
	return &verificationRecordRepository{q: tx}
}

func (r *verificationRecordRepository) InsertRecord(ctx context.Context, record *models.VerificationRecord) error {
	query := `
		INSERT INTO verification_records (id, video_id, verifier_name, verifier_email, verifier_relationship,
		                                  verification_message, device_fingerprint, ip_address, user_agent,
		                                  submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING submitted_at, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ID,
		record.VideoID,
		record.VerifierName,
		record.VerifierEmail,
		record.VerifierRelation,
		record.VerificationMessage,
		record.DeviceFingerprint,
		record.IPAddress,
		record.UserAgent,
		record.SubmittedAt,
		record.CreatedAt,
	).Scan(&record.SubmittedAt, &record.CreatedAt)

	if err != nil {
		return db.WrapError(err, "insert verification record")
	}

	return nil
}

func (r *verificationRecordRepository) FindConflict(ctx context.Context, videoID uuid.UUID, fingerprint, ipAddress string) (*Conflict, error) {
	query := `
		SELECT verifier_name,
		       device_fingerprint = $2 AS device_match,
		       ip_address = $3 AS ip_match
		FROM verification_records
		WHERE video_id = $1 AND (device_fingerprint = $2 OR ip_address = $3)
		ORDER BY device_match DESC, submitted_at ASC
		LIMIT 1
	`

	var (
		name        string
		deviceMatch bool
		ipMatch     bool
	)
	err := r.q.QueryRow(ctx, query, videoID, fingerprint, ipAddress).Scan(&name, &deviceMatch, &ipMatch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapError(err, "find signature conflict")
	}

	conflict := &Conflict{VerifierName: name}
	switch {
	case deviceMatch && ipMatch:
		conflict.Signal = MatchBoth
	case deviceMatch:
		conflict.Signal = MatchDevice
	default:
		conflict.Signal = MatchIP
	}

	return conflict, nil
}

func (r *verificationRecordRepository) CountByVideo(ctx context.Context, videoID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM verification_records WHERE video_id = $1`

	var count int
	if err := r.q.QueryRow(ctx, query, videoID).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count verification records")
	}

	return count, nil
}

func (r *verificationRecordRepository) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.VerificationRecord, error) {
	query := `
		SELECT id, video_id, verifier_name, verifier_email, verifier_relationship,
		       verification_message, device_fingerprint, ip_address, user_agent,
		       submitted_at, created_at
		FROM verification_records
		WHERE video_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := r.q.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "list verification records")
	}
	defer rows.Close()

	var records []*models.VerificationRecord
	for rows.Next() {
		record := &models.VerificationRecord{}
		err := rows.Scan(
			&record.ID,
			&record.VideoID,
			&record.VerifierName,
			&record.VerifierEmail,
			&record.VerifierRelation,
			&record.VerificationMessage,
			&record.DeviceFingerprint,
			&record.IPAddress,
			&record.UserAgent,
			&record.SubmittedAt,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan verification record")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate verification records")
	}

	return records, nil
}
