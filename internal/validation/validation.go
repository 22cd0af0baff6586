package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/athlinked/talent-verification-go/internal/db/models"
)

var (
	// Basic email shape only. The verifier is anonymous; the address is
	// self-reported and never used as an identity proof.
	emailRegex       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	fingerprintRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{8,128}$`)
)

const (
	maxNameLength  = 120
	maxEmailLength = 254
)

// FieldError reports which submission field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Validator struct {
	maxMessageSize int
}

func New(maxMessageSize int) *Validator {
	return &Validator{
		maxMessageSize: maxMessageSize,
	}
}

// ValidateSubmission checks the verifier-supplied fields of a vote.
// Signal availability (fingerprint, IP) is a separate concern handled by
// the verification service.
func (v *Validator) ValidateSubmission(name, email, relationship, message string) error {
	if strings.TrimSpace(name) == "" {
		return &FieldError{Field: "verifierName", Message: "must not be empty"}
	}
	if len(name) > maxNameLength {
		return &FieldError{Field: "verifierName", Message: fmt.Sprintf("exceeds %d characters", maxNameLength)}
	}

	if !v.IsValidEmail(email) {
		return &FieldError{Field: "verifierEmail", Message: "must be a valid email address"}
	}

	if !models.ValidRelationship(relationship) {
		return &FieldError{Field: "verifierRelationship", Message: "must be one of coach, teammate, parent, friend, witness, other"}
	}

	if len(message) > v.maxMessageSize {
		return &FieldError{Field: "verificationMessage", Message: fmt.Sprintf("exceeds %d characters", v.maxMessageSize)}
	}

	return nil
}

// IsValidEmail reports whether s has a plausible email shape.
func (v *Validator) IsValidEmail(s string) bool {
	return emailRegex.MatchString(s) && len(s) <= maxEmailLength
}

// IsValidFingerprint reports whether s looks like a client-generated device
// fingerprint token.
func (v *Validator) IsValidFingerprint(s string) bool {
	return fingerprintRegex.MatchString(s)
}
