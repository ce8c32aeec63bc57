package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusDeclined  BookingStatus = "declined"
)

// DefaultBookingDuration applies when a booking carries no explicit duration
const DefaultBookingDuration = 60

// ActiveBookingStatuses hold a provider's time and take part in overlap checks
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusDeclined, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// Valid reports whether s is a known booking status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransitionTo checks the booking state machine
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Booking represents an appointment between a patient and a provider
type Booking struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProviderID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"provider_id"`
	PatientID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"patient_id"`
	CareRequestID      *uuid.UUID     `gorm:"type:uuid;index" json:"care_request_id,omitempty"`
	Service            string         `gorm:"type:varchar(100);not null" json:"service"`
	ScheduledAt        time.Time      `gorm:"type:timestamptz;not null;index" json:"scheduled_at"`
	DurationMinutes    int            `gorm:"not null;default:60" json:"duration_minutes"`
	Status             BookingStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DeclineReason      *string        `gorm:"type:text" json:"decline_reason,omitempty"`
	ReferredProviderID *uuid.UUID     `gorm:"type:uuid" json:"referred_provider_id,omitempty"`
	PatientName        *string        `gorm:"type:varchar(255)" json:"patient_name,omitempty"`
	PatientPhone       *string        `gorm:"type:varchar(20)" json:"patient_phone,omitempty"`
	AddressNotes       *string        `gorm:"type:text" json:"address_notes,omitempty"`
	Consent            *bool          `json:"consent,omitempty"`
	IntakeKeywords     datatypes.JSON `gorm:"type:jsonb" json:"intake_keywords,omitempty"`
	IntakeTranscript   *string        `gorm:"type:text" json:"intake_transcript,omitempty"`
	IntakeSessionID    *string        `gorm:"type:varchar(100)" json:"intake_session_id,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Provider         *ProviderProfile `gorm:"foreignKey:ProviderID;references:UserID" json:"provider,omitempty"`
	ReferredProvider *ProviderProfile `gorm:"foreignKey:ReferredProviderID;references:UserID" json:"referred_provider,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Duration returns the booked length, falling back to the default
func (b *Booking) Duration() time.Duration {
	minutes := b.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultBookingDuration
	}
	return time.Duration(minutes) * time.Minute
}

// EndsAt returns the exclusive end of the booked interval
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(b.Duration())
}

// IsPending checks if booking is in pending status
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsDeletable checks if the patient may remove the booking entirely
func (b *Booking) IsDeletable() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusDeclined
}

// MirrorStatusFor returns the care request status implied by a booking moving
// from prior to target. ok is false when the care request must not change.
func MirrorStatusFor(prior, target BookingStatus) (status CareRequestStatus, ok bool) {
	switch target {
	case BookingStatusConfirmed:
		return CareRequestStatusMatched, true
	case BookingStatusDeclined:
		return CareRequestStatusClosed, true
	case BookingStatusCancelled:
		if prior == BookingStatusConfirmed {
			return CareRequestStatusOpen, true
		}
	}
	return "", false
}
