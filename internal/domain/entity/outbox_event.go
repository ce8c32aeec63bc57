package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Outbox event types
const (
	OutboxEventCareRequestStatus = "care_request.status"
)

// OutboxEvent is a side effect recorded in the same transaction as the write
// that caused it and delivered after commit.
type OutboxEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type        string         `gorm:"type:varchar(100);not null;index" json:"type"`
	AggregateID uuid.UUID      `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   *string        `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// CareRequestStatusPayload is the payload of OutboxEventCareRequestStatus
type CareRequestStatusPayload struct {
	CareRequestID uuid.UUID         `json:"care_request_id"`
	BookingID     uuid.UUID         `json:"booking_id"`
	PriorStatus   BookingStatus     `json:"prior_status"`
	BookingStatus BookingStatus     `json:"booking_status"`
	Status        CareRequestStatus `json:"status"`
}
