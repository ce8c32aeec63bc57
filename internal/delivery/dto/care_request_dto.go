package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateCareRequestRequest struct {
	Service        string   `json:"service" validate:"required,max=100"`
	Description    *string  `json:"description" validate:"omitempty,max=2000"`
	RequestedStart string   `json:"requested_start" validate:"required"` // RFC3339
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type MatchCareRequestsQuery struct {
	Service  string   `validate:"required"`
	Lat      *float64 `validate:"omitempty,latitude"`
	Lng      *float64 `validate:"omitempty,longitude"`
	RadiusKm *float64 `validate:"omitempty,gt=0,lte=500"`
	Limit    int      `validate:"omitempty,min=1"`
}

// Response DTOs

type CareRequestResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	Service        string    `json:"service"`
	Description    *string   `json:"description,omitempty"`
	RequestedStart time.Time `json:"requested_start"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Status         string    `json:"status"`
	DistanceKm     *float64  `json:"distance_km,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CareRequestListResponse struct {
	CareRequests []CareRequestResponse `json:"care_requests"`
	Total        int                   `json:"total"`
}
