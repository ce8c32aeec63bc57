package repository

import (
	"context"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	domainRepo "care-booking-marketplace/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Events failing this many times stay in the table for inspection but are no
// longer retried.
const maxOutboxAttempts = 10

type outboxRepository struct{}

func NewOutboxRepository() domainRepo.OutboxRepository {
	return &outboxRepository{}
}

func (r *outboxRepository) Create(ctx context.Context, db *gorm.DB, event *entity.OutboxEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

// FindPending returns undelivered events oldest first.
func (r *outboxRepository) FindPending(ctx context.Context, db *gorm.DB, limit int) ([]entity.OutboxEvent, error) {
	var events []entity.OutboxEvent
	err := db.WithContext(ctx).
		Where("delivered_at IS NULL AND attempts < ?", maxOutboxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) HasNewer(ctx context.Context, db *gorm.DB, event *entity.OutboxEvent) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.OutboxEvent{}).
		Where("aggregate_id = ? AND type = ? AND created_at > ? AND id <> ?", event.AggregateID, event.Type, event.CreatedAt, event.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).Model(&entity.OutboxEvent{}).
		Where("id = ?", id).
		Update("delivered_at", time.Now().UTC()).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, db *gorm.DB, id uuid.UUID, cause error) error {
	msg := cause.Error()
	return db.WithContext(ctx).Model(&entity.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error
}
