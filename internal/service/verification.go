// Package service provides the verification submission state machine and
// the verified-transition fan-out.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/athlinked/talent-verification-go/internal/db"
	"github.com/athlinked/talent-verification-go/internal/db/models"
	"github.com/athlinked/talent-verification-go/internal/db/repository"
	"github.com/athlinked/talent-verification-go/internal/metrics"
	"github.com/athlinked/talent-verification-go/internal/signal"
	"github.com/athlinked/talent-verification-go/internal/validation"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DB is the transaction entry point. *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Notifier is invoked after a commit that flipped a video to verified.
// The CAS in the transaction guarantees at most one invocation per video;
// the receiving side must still be idempotent.
type Notifier interface {
	OnVerified(ctx context.Context, videoID, ownerID uuid.UUID) error
}

// Identity is the authenticated session identity attached to a submission,
// if any. Anonymous submissions carry no identity and skip the self-vote
// check (an owner voting anonymously is indistinguishable from any other
// anonymous verifier; the fraud signature is the only deterrent there).
type Identity struct {
	UserID uuid.UUID
}

// SubmissionRequest is one vote as received from the client.
type SubmissionRequest struct {
	VerifierName         string
	VerifierEmail        string
	VerifierRelationship string
	VerificationMessage  string
	DeviceFingerprint    string
	IPAddress            string
	UserAgent            string
}

// Rejection reasons for informational (non-error) outcomes.
const (
	ReasonAlreadyFinal       = "AlreadyFinal"
	ReasonVerificationClosed = "VerificationClosed"
)

// SubmissionResult is the outcome of one submission attempt.
type SubmissionResult struct {
	Accepted         bool
	NewCount         int
	Goal             int
	Status           models.VerificationStatus
	ThresholdCrossed bool
	Reason           string
}

// Options tunes the submission handler.
type Options struct {
	// MaxRetries bounds retries of the submission transaction on transient
	// storage contention. Duplicates are never retried.
	MaxRetries int

	// RetryBackoff is the base delay between retries, multiplied by the
	// attempt number.
	RetryBackoff time.Duration
}

// VerificationService orchestrates one vote: validation, self-vote
// rejection, duplicate check, and the atomic insert + count + threshold
// transition. It is the sole writer of verification records and of the
// video verification status.
type VerificationService struct {
	database  DB
	videos    repository.TalentVideoRepository
	records   repository.VerificationRecordRepository
	validator *validation.Validator
	notifier  Notifier
	opts      Options
}

// NewVerificationService creates the submission handler. notifier may be nil
// when no fan-out is wired (tests, migration tooling).
func NewVerificationService(
	database DB,
	videos repository.TalentVideoRepository,
	records repository.VerificationRecordRepository,
	validator *validation.Validator,
	notifier Notifier,
	opts Options,
) *VerificationService {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}

	return &VerificationService{
		database:  database,
		videos:    videos,
		records:   records,
		validator: validator,
		notifier:  notifier,
		opts:      opts,
	}
}

// SubmitVerification processes one vote for the given video.
//
// Informational rejections (already verified/rejected, deadline passed)
// come back as a result with Accepted=false and a Reason; everything else
// that stops the vote is a typed error.
func (s *VerificationService) SubmitVerification(ctx context.Context, videoID uuid.UUID, req *SubmissionRequest, identity *Identity) (*SubmissionResult, error) {
	start := time.Now()
	result, err := s.submit(ctx, videoID, req, identity)
	metrics.ObserveSubmission(outcomeLabel(result, err), time.Since(start))
	return result, err
}

func (s *VerificationService) submit(ctx context.Context, videoID uuid.UUID, req *SubmissionRequest, identity *Identity) (*SubmissionResult, error) {
	if err := s.validator.ValidateSubmission(req.VerifierName, req.VerifierEmail, req.VerifierRelationship, req.VerificationMessage); err != nil {
		return nil, err
	}

	// A missing or malformed client token means the precheck never ran;
	// the vote is rejected before any storage work.
	fingerprint := strings.TrimSpace(req.DeviceFingerprint)
	if !s.validator.IsValidFingerprint(fingerprint) {
		return nil, ErrPrecheckIncomplete
	}

	// A missing IP is tolerated as a degraded signal rather than a failure:
	// public-IP resolution legitimately fails behind some networks. The
	// literal "unknown" still participates in the uniqueness constraint.
	ipAddress := strings.TrimSpace(req.IPAddress)
	if ipAddress == "" {
		ipAddress = signal.IPUnknown
	}

	video, err := s.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, &StorageError{Op: "load video", Cause: err}
	}

	// Self-vote rejection happens before any storage write and before the
	// duplicate check.
	if identity != nil && identity.UserID == video.OwnerID {
		return nil, ErrSelfVerification
	}

	if video.IsFinal() {
		return s.informationalResult(ctx, video, ReasonAlreadyFinal)
	}
	if video.DeadlinePassed(time.Now()) {
		return s.informationalResult(ctx, video, ReasonVerificationClosed)
	}

	record := models.NewVerificationRecord(
		video.ID,
		strings.TrimSpace(req.VerifierName),
		strings.TrimSpace(req.VerifierEmail),
		models.VerifierRelationship(req.VerifierRelationship),
		req.VerificationMessage,
		fingerprint,
		ipAddress,
		req.UserAgent,
	)

	var result *SubmissionResult
	for attempt := 1; ; attempt++ {
		result, err = s.submitOnce(ctx, video, record)
		if err == nil {
			break
		}

		var dupErr *DuplicateVerificationError
		if errors.As(err, &dupErr) {
			return nil, dupErr
		}
		if db.IsDuplicateKey(err) {
			return nil, s.duplicateError(ctx, video.ID, record, err)
		}
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}

		if db.IsTransient(err) && attempt <= s.opts.MaxRetries {
			logger.Log.Warn("transient storage contention, retrying submission",
				zap.String("videoId", video.ID.String()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-time.After(s.opts.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		return nil, &StorageError{Op: "record verification", Cause: err}
	}

	// The locked re-check inside the transaction can find the video
	// finalized or closed by a concurrent submission after the snapshot
	// checks above passed.
	if !result.Accepted {
		logger.Log.Info("verification closed before recording",
			zap.String("videoId", video.ID.String()),
			zap.String("reason", result.Reason),
		)
		return result, nil
	}

	logger.Log.Info("verification accepted",
		zap.String("videoId", video.ID.String()),
		zap.Int("count", result.NewCount),
		zap.Int("goal", result.Goal),
		zap.Bool("thresholdCrossed", result.ThresholdCrossed),
	)

	// The notifier runs after commit so no locks are held during external
	// calls, and its failures never affect the durably recorded vote.
	if result.ThresholdCrossed && s.notifier != nil {
		if err := s.notifier.OnVerified(ctx, video.ID, video.OwnerID); err != nil {
			logger.Log.Error("verified notification failed, relying on queue retry",
				zap.String("videoId", video.ID.String()),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// submitOnce runs the atomic record + count + transition step. The video
// row lock serializes concurrent submissions for the same video, so every
// transaction counts a settled record set and the goal comparison cannot be
// split across two in-flight inserts. The unique indexes on
// (video_id, device_fingerprint) and (video_id, ip_address) are the
// race-closing authority for duplicates; the conflict pre-check only exists
// to produce a friendlier message.
func (s *VerificationService) submitOnce(ctx context.Context, video *models.TalentVideo, record *models.VerificationRecord) (*SubmissionResult, error) {
	tx, err := s.database.Begin(ctx)
	if err != nil {
		return nil, db.WrapError(err, "begin submission transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	records := s.records.WithTx(tx)
	videos := s.videos.WithTx(tx)

	// The locked row carries the current goal and status, superseding the
	// snapshot loaded before the transaction began.
	locked, err := videos.GetVideoForUpdate(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	if locked.IsFinal() || locked.DeadlinePassed(time.Now()) {
		reason := ReasonAlreadyFinal
		if !locked.IsFinal() {
			reason = ReasonVerificationClosed
		}
		count, err := records.CountByVideo(ctx, locked.ID)
		if err != nil {
			return nil, err
		}
		return &SubmissionResult{
			Accepted: false,
			NewCount: count,
			Goal:     locked.VerificationGoal,
			Status:   locked.VerificationStatus,
			Reason:   reason,
		}, nil
	}

	conflict, err := records.FindConflict(ctx, video.ID, record.DeviceFingerprint, record.IPAddress)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &DuplicateVerificationError{
			MatchedSignal:    conflict.Signal,
			OriginalVerifier: conflict.VerifierName,
		}
	}

	if err := records.InsertRecord(ctx, record); err != nil {
		return nil, err
	}

	count, err := records.CountByVideo(ctx, video.ID)
	if err != nil {
		return nil, err
	}

	result := &SubmissionResult{
		Accepted: true,
		NewCount: count,
		Goal:     locked.VerificationGoal,
		Status:   models.StatusPending,
	}

	if count >= locked.VerificationGoal {
		crossed, err := videos.TrySetVerified(ctx, video.ID)
		if err != nil {
			return nil, err
		}
		// The row lock guarantees the status was still pending; the
		// guarded update keeps the transition honest regardless.
		result.ThresholdCrossed = crossed
		result.Status = models.StatusVerified
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, db.WrapError(err, "commit submission transaction")
	}

	if result.ThresholdCrossed {
		metrics.VerifiedTransitions.Inc()
	}

	return result, nil
}

// duplicateError converts a constraint violation into the user-facing
// rejection, resolving the original verifier's display name. submitOnce
// usually catches duplicates in its pre-check; this path covers the race
// where a competing insert landed between pre-check and insert.
func (s *VerificationService) duplicateError(ctx context.Context, videoID uuid.UUID, record *models.VerificationRecord, cause error) error {
	matched := repository.MatchIP
	if db.IsDuplicateDevice(cause) {
		matched = repository.MatchDevice
	}

	conflict, err := s.records.FindConflict(ctx, videoID, record.DeviceFingerprint, record.IPAddress)
	if err != nil || conflict == nil {
		logger.Log.Warn("could not resolve conflicting verifier for duplicate",
			zap.String("videoId", videoID.String()),
			zap.Error(err),
		)
		return &DuplicateVerificationError{MatchedSignal: matched, OriginalVerifier: "another verifier"}
	}

	return &DuplicateVerificationError{
		MatchedSignal:    conflict.Signal,
		OriginalVerifier: conflict.VerifierName,
	}
}

// informationalResult builds the success-style rejection for videos that no
// longer take votes. Post-goal votes are rejected rather than silently
// recorded so the audit trail stops growing once the goal is met.
func (s *VerificationService) informationalResult(ctx context.Context, video *models.TalentVideo, reason string) (*SubmissionResult, error) {
	count, err := s.records.CountByVideo(ctx, video.ID)
	if err != nil {
		return nil, &StorageError{Op: "count verifications", Cause: err}
	}

	return &SubmissionResult{
		Accepted: false,
		NewCount: count,
		Goal:     video.VerificationGoal,
		Status:   video.VerificationStatus,
		Reason:   reason,
	}, nil
}

func outcomeLabel(result *SubmissionResult, err error) string {
	switch {
	case err == nil && result != nil && result.Accepted:
		return "accepted"
	case err == nil:
		return "informational"
	default:
		return classifyError(err)
	}
}

func classifyError(err error) string {
	var fieldErr *validation.FieldError
	var dupErr *DuplicateVerificationError
	switch {
	case errors.As(err, &fieldErr):
		return "validation"
	case errors.As(err, &dupErr):
		return "duplicate"
	case errors.Is(err, ErrPrecheckIncomplete):
		return "precheck_incomplete"
	case errors.Is(err, ErrSelfVerification):
		return "self_verification"
	case errors.Is(err, ErrVideoNotFound):
		return "not_found"
	default:
		return "storage_error"
	}
}
