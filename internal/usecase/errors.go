package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"care-booking-marketplace/internal/scheduling"

	"github.com/jackc/pgx/v5/pgconn"
)

// Invalid input
var (
	ErrInvalidRange        = scheduling.ErrInvalidRange
	ErrInvalidDate         = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat   = errors.New("invalid time format, use HH:MM")
	ErrInvalidWhen         = errors.New("invalid when, use an RFC3339 timestamp")
	ErrInvalidDuration     = errors.New("duration must be a positive number of minutes")
	ErrBookingInPast       = errors.New("cannot book a time in the past")
	ErrInvalidAvailability = errors.New("invalid availability entry")
	ErrInvalidStatus       = errors.New("invalid booking status")
	ErrInvalidUpdate       = errors.New("send either a status change or intake fields")
)

// Authorization
var (
	ErrForbidden = errors.New("you don't have permission to perform this action")
)

// ConflictReason names the rule a rejected booking broke
type ConflictReason string

const (
	ConflictOutsideHours ConflictReason = "outside_hours"
	ConflictBlocked      ConflictReason = "blocked"
	ConflictBooking      ConflictReason = "booking"
)

// ConflictError rejects a booking request that does not fit the provider's
// schedule. Alternatives are only filled for booking overlaps.
type ConflictError struct {
	Reason       ConflictReason
	Alternatives []time.Time
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ConflictBlocked:
		return "provider is unavailable at the requested time"
	case ConflictOutsideHours:
		return "requested time is outside the provider's working hours"
	case ConflictBooking:
		return "provider already has a booking at the requested time"
	}
	return "booking conflict: " + string(e.Reason)
}

// conflictFromReason maps an availability verdict to a conflict. ReasonPast is
// reported separately as invalid input.
func conflictFromReason(reason scheduling.Reason, when time.Time) error {
	switch reason {
	case scheduling.ReasonNone:
		return nil
	case scheduling.ReasonPast:
		return ErrBookingInPast
	case scheduling.ReasonBlocked:
		return &ConflictError{Reason: ConflictBlocked}
	case scheduling.ReasonOutsideHours:
		return &ConflictError{Reason: ConflictOutsideHours}
	}
	return &ConflictError{Reason: ConflictBooking, Alternatives: alternativesAfter(when)}
}

// alternativesAfter proposes the next three hours without checking them
func alternativesAfter(when time.Time) []time.Time {
	return []time.Time{
		when.Add(1 * time.Hour),
		when.Add(2 * time.Hour),
		when.Add(3 * time.Hour),
	}
}

// StoreError wraps a persistence failure so callers can tell it from a
// domain rejection.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// isForeignKeyError checks if the error is a PostgreSQL foreign key violation
// containing the specified constraint name
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		if pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
