package repository

import (
	"context"
	"encoding/json"
	"errors"

	"care-booking-marketplace/internal/domain/entity"
	domainRepo "care-booking-marketplace/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerProfileRepository struct{}

func NewProviderProfileRepository() domainRepo.ProviderProfileRepository {
	return &providerProfileRepository{}
}

func (r *providerProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.ProviderProfile) error {
	return db.WithContext(ctx).Omit("User", "Availability").Create(profile).Error
}

func (r *providerProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	var profile entity.ProviderProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindActiveByService returns providers whose user account is active and whose
// services array contains service.
func (r *providerProfileRepository) FindActiveByService(ctx context.Context, db *gorm.DB, service string) ([]entity.ProviderProfile, error) {
	contains, err := json.Marshal([]string{service})
	if err != nil {
		return nil, err
	}

	var profiles []entity.ProviderProfile
	err = db.WithContext(ctx).
		Joins("JOIN users ON users.id = provider_profiles.user_id").
		Where("users.is_active = ?", true).
		Where("provider_profiles.services @> ?::jsonb", string(contains)).
		Preload("User").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *providerProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.ProviderProfile) error {
	return db.WithContext(ctx).Omit("User", "Availability").Save(profile).Error
}
