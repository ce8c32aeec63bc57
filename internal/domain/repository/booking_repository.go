package repository

import (
	"context"
	"time"

	"care-booking-marketplace/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error)
	FindByProviderID(ctx context.Context, db *gorm.DB, providerID uuid.UUID) ([]entity.Booking, error)
	// FindActiveInWindow returns pending and confirmed bookings of a provider
	// scheduled in [from, to).
	FindActiveInWindow(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.Booking, error)
	// UpdateStatusIf writes the status change only while the row still has the
	// expected status. Returns affected rows: 0 means another writer won.
	UpdateStatusIf(ctx context.Context, db *gorm.DB, id uuid.UUID, expected entity.BookingStatus, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
	// LockProvider serialises booking writes for a provider until the
	// surrounding transaction ends.
	LockProvider(ctx context.Context, db *gorm.DB, providerID uuid.UUID) error
}
