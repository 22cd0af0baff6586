package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// VerifierRelationship describes how the verifier knows the athlete.
type VerifierRelationship string

const (
	RelationshipCoach    VerifierRelationship = "coach"
	RelationshipTeammate VerifierRelationship = "teammate"
	RelationshipParent   VerifierRelationship = "parent"
	RelationshipFriend   VerifierRelationship = "friend"
	RelationshipWitness  VerifierRelationship = "witness"
	RelationshipOther    VerifierRelationship = "other"
)

// Relationships lists the accepted relationship values.
var Relationships = []VerifierRelationship{
	RelationshipCoach,
	RelationshipTeammate,
	RelationshipParent,
	RelationshipFriend,
	RelationshipWitness,
	RelationshipOther,
}

// ValidRelationship reports whether s is one of the enumerated relationships.
func ValidRelationship(s string) bool {
	for _, r := range Relationships {
		if string(r) == s {
			return true
		}
	}
	return false
}

// VerificationRecord is one accepted community vote vouching for a talent
// video. Records are append-only: the table trigger rejects updates and
// deletes, so the audit trail cannot be rewritten.
type VerificationRecord struct {
	ID                  uuid.UUID            `db:"id"`
	VideoID             uuid.UUID            `db:"video_id"`
	VerifierName        string               `db:"verifier_name"`
	VerifierEmail       string               `db:"verifier_email"`
	VerifierRelation    VerifierRelationship `db:"verifier_relationship"`
	VerificationMessage sql.NullString       `db:"verification_message"`
	DeviceFingerprint   string               `db:"device_fingerprint"`
	IPAddress           string               `db:"ip_address"`
	UserAgent           sql.NullString       `db:"user_agent"`
	SubmittedAt         time.Time            `db:"submitted_at"`
	CreatedAt           time.Time            `db:"created_at"`
}

// NewVerificationRecord creates a record for an accepted vote.
func NewVerificationRecord(videoID uuid.UUID, name, email string, relationship VerifierRelationship, message, fingerprint, ipAddress, userAgent string) *VerificationRecord {
	now := time.Now()
	return &VerificationRecord{
		ID:                  uuid.New(),
		VideoID:             videoID,
		VerifierName:        name,
		VerifierEmail:       email,
		VerifierRelation:    relationship,
		VerificationMessage: nullString(message),
		DeviceFingerprint:   fingerprint,
		IPAddress:           ipAddress,
		UserAgent:           nullString(userAgent),
		SubmittedAt:         now,
		CreatedAt:           now,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
