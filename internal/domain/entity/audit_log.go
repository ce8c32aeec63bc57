package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string            `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Common audit actions
const (
	AuditActionUserLogin          = "user.login"
	AuditActionUserLogout         = "user.logout"
	AuditActionUserRegister       = "user.register"
	AuditActionBookingCreate      = "booking.create"
	AuditActionBookingConfirm     = "booking.confirm"
	AuditActionBookingDecline     = "booking.decline"
	AuditActionBookingComplete    = "booking.complete"
	AuditActionBookingCancel      = "booking.cancel"
	AuditActionBookingUpdate      = "booking.update"
	AuditActionBookingDelete      = "booking.delete"
	AuditActionAvailabilityCreate = "availability.create"
	AuditActionAvailabilityDelete = "availability.delete"
	AuditActionCareRequestCreate  = "care_request.create"
	AuditActionProfileUpdate      = "profile.update"
)

// AuditActionForStatus maps a booking status change to its audit action
func AuditActionForStatus(status BookingStatus) string {
	switch status {
	case BookingStatusConfirmed:
		return AuditActionBookingConfirm
	case BookingStatusDeclined:
		return AuditActionBookingDecline
	case BookingStatusCompleted:
		return AuditActionBookingComplete
	case BookingStatusCancelled:
		return AuditActionBookingCancel
	}
	return AuditActionBookingUpdate
}
