package repository

import (
	"context"
	"errors"

	"care-booking-marketplace/internal/domain/entity"
	domainRepo "care-booking-marketplace/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type careRequestRepository struct{}

func NewCareRequestRepository() domainRepo.CareRequestRepository {
	return &careRequestRepository{}
}

func (r *careRequestRepository) Create(ctx context.Context, db *gorm.DB, request *entity.CareRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *careRequestRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.CareRequest, error) {
	var request entity.CareRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *careRequestRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.CareRequest, error) {
	var requests []entity.CareRequest
	err := db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *careRequestRepository) FindOpenByService(ctx context.Context, db *gorm.DB, service string) ([]entity.CareRequest, error) {
	var requests []entity.CareRequest
	err := db.WithContext(ctx).
		Where("status = ? AND service = ?", entity.CareRequestStatusOpen, service).
		Order("requested_start ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *careRequestRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.CareRequestStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.CareRequest{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}
