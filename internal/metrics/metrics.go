// Package metrics exposes Prometheus instrumentation for the verification
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submission attempts by outcome
	// (accepted, informational, validation, duplicate, precheck_incomplete,
	// self_verification, not_found, storage_error).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talent_verification",
		Name:      "submissions_total",
		Help:      "Verification submission attempts by outcome.",
	}, []string{"outcome"})

	// VerifiedTransitions counts pending -> verified flips. The CAS in the
	// submission transaction makes this at most one per video.
	VerifiedTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talent_verification",
		Name:      "verified_transitions_total",
		Help:      "Videos flipped from pending to verified.",
	})

	// SubmissionDuration tracks end-to-end submission handling time.
	SubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "talent_verification",
		Name:      "submission_duration_seconds",
		Help:      "Time spent handling one verification submission.",
		Buckets:   prometheus.DefBuckets,
	})

	// NotificationFailures counts verified-badge fan-out failures handed to
	// the queue for retry.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talent_verification",
		Name:      "notification_failures_total",
		Help:      "Verified notifications that failed and were left to queue retry.",
	})
)

// ObserveSubmission records one submission attempt.
func ObserveSubmission(outcome string, elapsed time.Duration) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
	SubmissionDuration.Observe(elapsed.Seconds())
}
