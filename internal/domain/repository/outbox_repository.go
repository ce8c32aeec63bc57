package repository

import (
	"context"

	"care-booking-marketplace/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Create(ctx context.Context, db *gorm.DB, event *entity.OutboxEvent) error
	FindPending(ctx context.Context, db *gorm.DB, limit int) ([]entity.OutboxEvent, error)
	// HasNewer reports whether an event of the same type for the same
	// aggregate was recorded after event.
	HasNewer(ctx context.Context, db *gorm.DB, event *entity.OutboxEvent) (bool, error)
	MarkDelivered(ctx context.Context, db *gorm.DB, id uuid.UUID) error
	MarkFailed(ctx context.Context, db *gorm.DB, id uuid.UUID, cause error) error
}
