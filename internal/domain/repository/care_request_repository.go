package repository

import (
	"context"

	"care-booking-marketplace/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CareRequestRepository interface {
	Create(ctx context.Context, db *gorm.DB, request *entity.CareRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.CareRequest, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.CareRequest, error)
	FindOpenByService(ctx context.Context, db *gorm.DB, service string) ([]entity.CareRequest, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.CareRequestStatus) (int64, error)
}
