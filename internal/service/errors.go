package service

import (
	"errors"
	"fmt"

	"github.com/athlinked/talent-verification-go/internal/db/repository"
)

var (
	// ErrVideoNotFound is returned when the target video does not exist.
	ErrVideoNotFound = errors.New("talent video not found")

	// ErrPrecheckIncomplete is returned when the device fingerprint has not
	// been resolved yet. Retryable: the client should wait for its async
	// signal resolution to finish and resubmit.
	ErrPrecheckIncomplete = errors.New("risk signals not yet resolved")

	// ErrSelfVerification is returned when an authenticated owner votes on
	// their own video.
	ErrSelfVerification = errors.New("owners cannot verify their own videos")
)

// DuplicateVerificationError rejects a vote whose fraud signature collides
// with an accepted record. Only the original verifier's display name is
// carried; their contact details are never exposed.
type DuplicateVerificationError struct {
	MatchedSignal    repository.MatchedSignal
	OriginalVerifier string
}

func (e *DuplicateVerificationError) Error() string {
	return fmt.Sprintf("a verification from this %s was already submitted by %s",
		signalNoun(e.MatchedSignal), e.OriginalVerifier)
}

func signalNoun(s repository.MatchedSignal) string {
	switch s {
	case repository.MatchDevice:
		return "device"
	case repository.MatchIP:
		return "network"
	default:
		return "device and network"
	}
}

// StorageError wraps a storage failure that survived the bounded retries.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
