//go:build integration
// +build integration

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/athlinked/talent-verification-go/internal/db/models"
	"github.com/athlinked/talent-verification-go/internal/db/repository"
	"github.com/athlinked/talent-verification-go/internal/db/testutil"
	"github.com/athlinked/talent-verification-go/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingNotifier records OnVerified invocations; safe for concurrent use.
type countingNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (n *countingNotifier) OnVerified(ctx context.Context, videoID, ownerID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, videoID)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type verificationFixture struct {
	td       *testutil.TestDatabase
	videos   repository.TalentVideoRepository
	records  repository.VerificationRecordRepository
	notifier *countingNotifier
	svc      *VerificationService
}

func setupVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	td := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { td.Cleanup(t) })

	videos := repository.NewTalentVideoRepository(td.Pool)
	records := repository.NewVerificationRecordRepository(td.Pool)
	notifier := &countingNotifier{}
	svc := NewVerificationService(td.Pool, videos, records, validation.New(2000), notifier,
		Options{MaxRetries: 3, RetryBackoff: 10 * time.Millisecond})

	return &verificationFixture{
		td:       td,
		videos:   videos,
		records:  records,
		notifier: notifier,
		svc:      svc,
	}
}

func (f *verificationFixture) createVideo(t *testing.T, goal int) *models.TalentVideo {
	t.Helper()

	video := models.NewTalentVideo(uuid.New(), "Slalom run", "skiing", "technique", "https://cdn.athlinked.test/v/i1.mp4", goal)
	require.NoError(t, f.videos.CreateVideo(context.Background(), video))
	return video
}

func voteRequest(n int) *SubmissionRequest {
	return &SubmissionRequest{
		VerifierName:         fmt.Sprintf("Verifier %d", n),
		VerifierEmail:        fmt.Sprintf("verifier%d@example.com", n),
		VerifierRelationship: "witness",
		DeviceFingerprint:    fmt.Sprintf("fp_device_%04d", n),
		IPAddress:            fmt.Sprintf("203.0.113.%d", n+1),
	}
}

func TestVerificationService_Integration_SingleVoteGoal(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 1)

	result, err := f.svc.SubmitVerification(ctx, video.ID, voteRequest(0), nil)
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 1, result.NewCount)
	assert.True(t, result.ThresholdCrossed)
	assert.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, 1, f.notifier.count())

	stored, err := f.videos.GetVideoByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, stored.VerificationStatus)
	assert.True(t, stored.VerifiedAt.Valid)
}

func TestVerificationService_Integration_QuorumOfThree(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	for i := 0; i < 2; i++ {
		result, err := f.svc.SubmitVerification(ctx, video.ID, voteRequest(i), nil)
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.False(t, result.ThresholdCrossed)
		assert.Equal(t, models.StatusPending, result.Status)
	}
	assert.Equal(t, 0, f.notifier.count())

	result, err := f.svc.SubmitVerification(ctx, video.ID, voteRequest(2), nil)
	require.NoError(t, err)
	assert.True(t, result.ThresholdCrossed)
	assert.Equal(t, 3, result.NewCount)
	assert.Equal(t, 1, f.notifier.count())

	// A fourth vote arrives after the terminal transition.
	result, err = f.svc.SubmitVerification(ctx, video.ID, voteRequest(3), nil)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonAlreadyFinal, result.Reason)
	assert.Equal(t, 1, f.notifier.count())

	count, err := f.records.CountByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestVerificationService_Integration_DuplicateDevice(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	first := voteRequest(0)
	_, err := f.svc.SubmitVerification(ctx, video.ID, first, nil)
	require.NoError(t, err)

	// Same device, different network.
	second := voteRequest(1)
	second.DeviceFingerprint = first.DeviceFingerprint

	_, err = f.svc.SubmitVerification(ctx, video.ID, second, nil)

	var dupErr *DuplicateVerificationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, repository.MatchDevice, dupErr.MatchedSignal)
	assert.Equal(t, first.VerifierName, dupErr.OriginalVerifier)

	count, err := f.records.CountByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVerificationService_Integration_IdenticalRetry(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	req := voteRequest(0)
	_, err := f.svc.SubmitVerification(ctx, video.ID, req, nil)
	require.NoError(t, err)

	// The client resubmits the same vote, e.g. after a lost response.
	_, err = f.svc.SubmitVerification(ctx, video.ID, req, nil)

	var dupErr *DuplicateVerificationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, repository.MatchBoth, dupErr.MatchedSignal)

	count, err := f.records.CountByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVerificationService_Integration_MissingFingerprint(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	req := voteRequest(0)
	req.DeviceFingerprint = ""

	_, err := f.svc.SubmitVerification(ctx, video.ID, req, nil)
	assert.ErrorIs(t, err, ErrPrecheckIncomplete)

	count, err := f.records.CountByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "incomplete prechecks must leave no trace")
}

func TestVerificationService_Integration_DeadlineClosesAndReopens(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, f.videos.SetVerificationDeadline(ctx, video.ID, &past))

	result, err := f.svc.SubmitVerification(ctx, video.ID, voteRequest(0), nil)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonVerificationClosed, result.Reason)

	// Clearing the deadline reopens voting.
	require.NoError(t, f.videos.SetVerificationDeadline(ctx, video.ID, nil))

	result, err = f.svc.SubmitVerification(ctx, video.ID, voteRequest(0), nil)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestVerificationService_Integration_ConcurrentVotesTransitionOnce(t *testing.T) {
	f := setupVerificationFixture(t)
	ctx := context.Background()

	video := f.createVideo(t, 3)

	const voters = 10
	results := make([]*SubmissionResult, voters)
	errs := make([]error, voters)

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.SubmitVerification(ctx, video.ID, voteRequest(i), nil)
		}(i)
	}
	wg.Wait()

	transitions := 0
	for i := 0; i < voters; i++ {
		require.NoError(t, errs[i], "vote %d", i)
		if results[i].ThresholdCrossed {
			transitions++
		}
	}

	assert.Equal(t, 1, transitions, "the terminal transition must fire exactly once")
	assert.Equal(t, 1, f.notifier.count(), "the verified event must be emitted exactly once")

	stored, err := f.videos.GetVideoByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, stored.VerificationStatus)

	count, err := f.records.CountByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "votes arriving after finalization must not be recorded")
}

func TestVerificationService_Integration_ConcurrentFinalVotes(t *testing.T) {
	// Two votes racing for the final slot of a two-vote quorum. Each
	// iteration uses a fresh video; the pair must always leave the video
	// verified, with the transition and the event firing exactly once.
	f := setupVerificationFixture(t)
	ctx := context.Background()

	const rounds = 20
	for round := 0; round < rounds; round++ {
		video := f.createVideo(t, 2)

		var wg sync.WaitGroup
		results := make([]*SubmissionResult, 2)
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = f.svc.SubmitVerification(ctx, video.ID, voteRequest(round*2+i), nil)
			}(i)
		}
		wg.Wait()

		transitions := 0
		recorded := 0
		for i := 0; i < 2; i++ {
			require.NoError(t, errs[i], "round %d vote %d", round, i)
			if results[i].Accepted {
				recorded++
			}
			if results[i].ThresholdCrossed {
				transitions++
			}
		}

		assert.Equal(t, 2, recorded, "round %d: both votes must be recorded", round)
		assert.Equal(t, 1, transitions, "round %d: exactly one vote crosses the threshold", round)

		stored, err := f.videos.GetVideoByID(ctx, video.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusVerified, stored.VerificationStatus,
			"round %d: the quorum was met, the video must not stay pending", round)
	}

	assert.Equal(t, rounds, f.notifier.count(), "one verified event per video")
}
