package repository

import (
	"context"
	"time"

	"care-booking-marketplace/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, db *gorm.DB, entry *entity.AvailabilityEntry) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.AvailabilityEntry, error)
	FindByProviderID(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error)
	FindRecurring(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error)
	// FindOneTimeInRange returns one-time entries whose date lies in [from, to].
	FindOneTimeInRange(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.AvailabilityEntry, error)
	// Delete removes an entry owned by providerID and returns the affected rows.
	Delete(ctx context.Context, db *gorm.DB, providerID, id uuid.UUID) (int64, error)
}
