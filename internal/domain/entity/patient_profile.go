package entity

import (
	"github.com/google/uuid"
)

// PatientProfile represents patient-specific profile data
type PatientProfile struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PhoneNumber string    `gorm:"type:varchar(20);index" json:"phone_number,omitempty"`
	Address     string    `gorm:"type:text" json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bookings     []Booking     `gorm:"foreignKey:PatientID" json:"bookings,omitempty"`
	CareRequests []CareRequest `gorm:"foreignKey:PatientID" json:"care_requests,omitempty"`
}

func (PatientProfile) TableName() string {
	return "patient_profiles"
}
