package entity

import (
	"time"

	"github.com/google/uuid"
)

// CareRequestStatus represents the status of an open request for care
type CareRequestStatus string

const (
	CareRequestStatusOpen    CareRequestStatus = "open"
	CareRequestStatusMatched CareRequestStatus = "matched"
	CareRequestStatusClosed  CareRequestStatus = "closed"
)

// Default request location used when the patient does not share coordinates
const (
	DefaultCareRequestLatitude  = 37.77
	DefaultCareRequestLongitude = -122.42
)

// CareRequest is a standing, unassigned request that bookings may fulfil.
// One request may spawn several bookings over time when it is re-opened.
type CareRequest struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	Service        string            `gorm:"type:varchar(100);not null;index" json:"service"`
	Description    *string           `gorm:"type:text" json:"description,omitempty"`
	RequestedStart time.Time         `gorm:"type:timestamptz;not null" json:"requested_start"`
	Latitude       float64           `gorm:"not null" json:"latitude"`
	Longitude      float64           `gorm:"not null" json:"longitude"`
	Status         CareRequestStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CareRequest) TableName() string {
	return "care_requests"
}

// IsOpen checks if the request still awaits a provider
func (c *CareRequest) IsOpen() bool {
	return c.Status == CareRequestStatusOpen
}
