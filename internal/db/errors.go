package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a requested record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateDevice is returned when a verification record insert collides
	// on (video_id, device_fingerprint).
	ErrDuplicateDevice = errors.New("duplicate device fingerprint for video")

	// ErrDuplicateIP is returned when a verification record insert collides
	// on (video_id, ip_address).
	ErrDuplicateIP = errors.New("duplicate ip address for video")

	// ErrDuplicateKey is returned for any other unique constraint violation.
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrImmutableRecord is returned when attempting to modify an append-only record.
	ErrImmutableRecord = errors.New("record is immutable and cannot be modified")

	// ErrTransient is returned for contention errors that are safe to retry
	// (serialization failures, deadlocks).
	ErrTransient = errors.New("transient storage contention")
)

// Unique index names from the migrations. The constraint name on a 23505 is
// how the caller learns which fraud signal collided.
const (
	constraintVideoDevice = "verification_records_video_device_key"
	constraintVideoIP     = "verification_records_video_ip_key"
)

// WrapError wraps database errors with additional context and maps them to custom error types.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Handle pgx specific errors
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}

	// Handle PostgreSQL errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case constraintVideoDevice:
				return fmt.Errorf("%s: %w", operation, ErrDuplicateDevice)
			case constraintVideoIP:
				return fmt.Errorf("%s: %w", operation, ErrDuplicateIP)
			default:
				return fmt.Errorf("%s: %w (constraint: %s)", operation, ErrDuplicateKey, pgErr.ConstraintName)
			}
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w (constraint: %s)", operation, ErrForeignKeyViolation, pgErr.ConstraintName)
		case "P0001": // raise_exception (from our trigger)
			return fmt.Errorf("%s: %w: %s", operation, ErrImmutableRecord, pgErr.Message)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%s: %w [%s]", operation, ErrTransient, pgErr.Code)
		default:
			return fmt.Errorf("%s: database error [%s]: %w", operation, pgErr.Code, err)
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// IsNotFound returns true if the error is an ErrNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey returns true for any uniqueness violation, including the
// fraud-signature collisions.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrDuplicateDevice) ||
		errors.Is(err, ErrDuplicateIP)
}

// IsDuplicateDevice returns true if the error is an ErrDuplicateDevice error.
func IsDuplicateDevice(err error) bool {
	return errors.Is(err, ErrDuplicateDevice)
}

// IsDuplicateIP returns true if the error is an ErrDuplicateIP error.
func IsDuplicateIP(err error) bool {
	return errors.Is(err, ErrDuplicateIP)
}

// IsImmutableRecord returns true if the error is an ErrImmutableRecord error.
func IsImmutableRecord(err error) bool {
	return errors.Is(err, ErrImmutableRecord)
}

// IsTransient returns true if the error is safe to retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
