package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateBookingRequest struct {
	ProviderID            uuid.UUID  `json:"provider_id" validate:"required"`
	Service               string     `json:"service" validate:"required,max=100"`
	When                  string     `json:"when" validate:"required"` // RFC3339
	DurationMinutes       int        `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	CareRequestID         *uuid.UUID `json:"care_request_id" validate:"omitempty"`
	SkipAvailabilityCheck bool       `json:"skip_availability_check"`

	// Intake fields
	PatientName      *string  `json:"patient_name" validate:"omitempty,max=255"`
	PatientPhone     *string  `json:"patient_phone" validate:"omitempty,max=20"`
	AddressNotes     *string  `json:"address_notes" validate:"omitempty"`
	Consent          *bool    `json:"consent"`
	IntakeKeywords   []string `json:"intake_keywords" validate:"omitempty,dive,max=100"`
	IntakeTranscript *string  `json:"intake_transcript" validate:"omitempty"`
	IntakeSessionID  *string  `json:"intake_session_id" validate:"omitempty,max=100"`
}

// UpdateBookingRequest carries either a status change or intake edits.
// Decline fields are only read with status=declined.
type UpdateBookingRequest struct {
	Status             *string    `json:"status" validate:"omitempty,oneof=confirmed declined completed cancelled"`
	DeclineReason      *string    `json:"decline_reason" validate:"omitempty,max=1000"`
	ReferredProviderID *uuid.UUID `json:"referred_provider_id" validate:"omitempty"`

	PatientName  *string `json:"patient_name" validate:"omitempty,max=255"`
	PatientPhone *string `json:"patient_phone" validate:"omitempty,max=20"`
	AddressNotes *string `json:"address_notes" validate:"omitempty"`
	Consent      *bool   `json:"consent"`
}

// Response DTOs

type BookingResponse struct {
	ID                 uuid.UUID         `json:"id"`
	ProviderID         uuid.UUID         `json:"provider_id"`
	PatientID          uuid.UUID         `json:"patient_id"`
	CareRequestID      *uuid.UUID        `json:"care_request_id,omitempty"`
	Service            string            `json:"service"`
	ScheduledAt        time.Time         `json:"scheduled_at"`
	EndsAt             time.Time         `json:"ends_at"`
	DurationMinutes    int               `json:"duration_minutes"`
	Status             string            `json:"status"`
	DeclineReason      *string           `json:"decline_reason,omitempty"`
	ReferredProviderID *uuid.UUID        `json:"referred_provider_id,omitempty"`
	PatientName        *string           `json:"patient_name,omitempty"`
	PatientPhone       *string           `json:"patient_phone,omitempty"`
	AddressNotes       *string           `json:"address_notes,omitempty"`
	Consent            *bool             `json:"consent,omitempty"`
	IntakeKeywords     []string          `json:"intake_keywords,omitempty"`
	IntakeTranscript   *string           `json:"intake_transcript,omitempty"`
	IntakeSessionID    *string           `json:"intake_session_id,omitempty"`
	Provider           *ProviderResponse `json:"provider,omitempty"`
	ReferredProvider   *ProviderResponse `json:"referred_provider,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// BookingConflictResponse is the error body of a rejected booking
type BookingConflictResponse struct {
	Message      string      `json:"message"`
	Reason       string      `json:"reason"`
	Alternatives []time.Time `json:"alternatives,omitempty"`
}
