package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RegisterPatientRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	FullName    string   `json:"full_name" validate:"required,min=2"`
	PhoneNumber string   `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Address     string   `json:"address" validate:"omitempty"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type RegisterProviderRequest struct {
	Email          string           `json:"email" validate:"required,email"`
	Password       string           `json:"password" validate:"required,min=6"`
	FullName       string           `json:"full_name" validate:"required,min=2"`
	Title          string           `json:"title" validate:"omitempty,max=100"`
	LicenseNumber  string           `json:"license_number" validate:"required,max=50"`
	Specialization string           `json:"specialization" validate:"required"`
	Biography      string           `json:"biography" validate:"omitempty"`
	Services       []string         `json:"services" validate:"required,min=1,dive,required,max=100"`
	Latitude       *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64         `json:"longitude" validate:"omitempty,longitude"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate" validate:"omitempty"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserResponse struct {
	ID              uuid.UUID               `json:"id"`
	Email           string                  `json:"email"`
	FullName        string                  `json:"full_name"`
	Role            string                  `json:"role"`
	ProviderProfile *ProviderResponse       `json:"provider_profile,omitempty"`
	PatientProfile  *PatientProfileResponse `json:"patient_profile,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}
