package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAvailabilityRequest struct {
	Kind         string  `json:"availability_type" validate:"required,oneof=recurring one_time_available one_time_blocked"`
	DayOfWeek    *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	SpecificDate *string `json:"specific_date" validate:"omitempty,date"` // Format: YYYY-MM-DD
	StartTime    string  `json:"start_time" validate:"required,hhmm"`     // Format: HH:MM
	EndTime      string  `json:"end_time" validate:"required,hhmm"`       // Format: HH:MM
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
}

// Response DTOs

type AvailabilityEntryResponse struct {
	ID           uuid.UUID `json:"id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	Kind         string    `json:"availability_type"`
	DayOfWeek    *int      `json:"day_of_week,omitempty"`
	SpecificDate *string   `json:"specific_date,omitempty"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AvailabilityListResponse struct {
	Recurring []AvailabilityEntryResponse `json:"recurring"`
	OneTime   []AvailabilityEntryResponse `json:"one_time"`
}
