package repository

import (
	"context"
	"errors"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	domainRepo "care-booking-marketplace/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type availabilityRepository struct{}

func NewAvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepository{}
}

func (r *availabilityRepository) Create(ctx context.Context, db *gorm.DB, entry *entity.AvailabilityEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *availabilityRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.AvailabilityEntry, error) {
	var entry entity.AvailabilityEntry
	err := db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *availabilityRepository) FindByProviderID(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error) {
	var entries []entity.AvailabilityEntry
	err := db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("day_of_week ASC NULLS LAST, specific_date ASC NULLS LAST, start_time ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *availabilityRepository) FindRecurring(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error) {
	var entries []entity.AvailabilityEntry
	err := db.WithContext(ctx).
		Where("provider_id = ? AND availability_type = ?", providerID, entity.AvailabilityRecurring).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *availabilityRepository) FindOneTimeInRange(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.AvailabilityEntry, error) {
	var entries []entity.AvailabilityEntry
	err := db.WithContext(ctx).
		Where("provider_id = ? AND availability_type <> ?", providerID, entity.AvailabilityRecurring).
		Where("specific_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("specific_date ASC, start_time ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete is scoped to the owner so a provider cannot remove another provider's entry.
func (r *availabilityRepository) Delete(ctx context.Context, db *gorm.DB, providerID, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", id, providerID).
		Delete(&entity.AvailabilityEntry{})
	return result.RowsAffected, result.Error
}
