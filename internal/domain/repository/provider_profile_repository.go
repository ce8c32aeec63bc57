package repository

import (
	"context"

	"care-booking-marketplace/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.ProviderProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error)
	// FindActiveByService returns providers with an active account that list service.
	FindActiveByService(ctx context.Context, db *gorm.DB, service string) ([]entity.ProviderProfile, error)
	Update(ctx context.Context, db *gorm.DB, profile *entity.ProviderProfile) error
}
