package dto

import (
	"github.com/google/uuid"
)

// PatientProfileResponse represents patient profile data in responses
type PatientProfileResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
}

// UpdatePatientRequest edits the caller's own patient profile
type UpdatePatientRequest struct {
	PhoneNumber *string  `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Address     *string  `json:"address" validate:"omitempty,max=1000"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}
