package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type UpdateProviderRequest struct {
	Title          *string          `json:"title" validate:"omitempty,max=100"`
	Specialization *string          `json:"specialization" validate:"omitempty,min=2"`
	Biography      *string          `json:"biography" validate:"omitempty"`
	Services       []string         `json:"services" validate:"omitempty,min=1,dive,required,max=100"`
	Latitude       *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64         `json:"longitude" validate:"omitempty,longitude"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate" validate:"omitempty"`
}

type MatchProvidersQuery struct {
	Service  string   `validate:"required"`
	Lat      float64  `validate:"latitude"`
	Lng      float64  `validate:"longitude"`
	When     string   `validate:"omitempty"` // RFC3339
	RadiusKm *float64 `validate:"omitempty,gt=0,lte=500"`
	Limit    int      `validate:"omitempty,min=1"`
}

// Response DTOs

type ProviderResponse struct {
	ID             uuid.UUID       `json:"id"`
	FullName       string          `json:"full_name,omitempty"`
	Title          string          `json:"title,omitempty"`
	LicenseNumber  string          `json:"license_number"`
	Specialization string          `json:"specialization"`
	Biography      string          `json:"biography,omitempty"`
	Services       []string        `json:"services"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	Rating         float64         `json:"rating"`
	VisitCount     int             `json:"visit_count"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	IsActive       *bool           `json:"is_active,omitempty"`
}

type RankedProviderResponse struct {
	ProviderResponse
	DistanceKm float64 `json:"distance_km"`
}

type ProviderMatchResponse struct {
	Providers []RankedProviderResponse `json:"providers"`
	Total     int                      `json:"total"`
}
