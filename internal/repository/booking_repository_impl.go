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

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error {
	return db.WithContext(ctx).Omit("Provider", "ReferredProvider").Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.WithContext(ctx).
		Preload("Provider.User").
		Preload("ReferredProvider.User").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.WithContext(ctx).
		Preload("Provider.User").
		Where("patient_id = ?", patientID).
		Order("scheduled_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByProviderID(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("scheduled_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindActiveInWindow(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.WithContext(ctx).
		Where("provider_id = ? AND status IN ?", providerID, entity.ActiveBookingStatuses).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Order("scheduled_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatusIf applies fields ONLY if the booking still has the expected status.
// Returns affected rows: 1 = success, 0 = status changed underneath (prevents lost updates).
func (r *bookingRepository) UpdateStatusIf(ctx context.Context, db *gorm.DB, id uuid.UUID, expected entity.BookingStatus, fields map[string]interface{}) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Booking{})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) LockProvider(ctx context.Context, db *gorm.DB, providerID uuid.UUID) error {
	return db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Error
}
