package usecase

import (
	"context"
	"errors"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound = errors.New("patient profile not found")
)

type PatientProfileUsecase interface {
	GetMyProfile(ctx context.Context, caller entity.CallerIdentity) (*dto.PatientProfileResponse, error)
	UpdateMyProfile(ctx context.Context, caller entity.CallerIdentity, req *dto.UpdatePatientRequest) (*dto.PatientProfileResponse, error)
}

type patientProfileUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
}

func NewPatientProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
) PatientProfileUsecase {
	return &patientProfileUsecase{
		db:                 db,
		log:                log,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
	}
}

func (u *patientProfileUsecase) GetMyProfile(ctx context.Context, caller entity.CallerIdentity) (*dto.PatientProfileResponse, error) {
	profile, err := u.findOwn(ctx, u.db, caller)
	if err != nil {
		return nil, err
	}
	return converter.PatientProfileToResponse(profile), nil
}

// UpdateMyProfile updates the patient's own contact details and location.
// Coordinates are only changed as a pair.
func (u *patientProfileUsecase) UpdateMyProfile(ctx context.Context, caller entity.CallerIdentity, req *dto.UpdatePatientRequest) (*dto.PatientProfileResponse, error) {
	var profile *entity.PatientProfile

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = u.findOwn(ctx, tx, caller)
		if err != nil {
			return err
		}

		// Capture old value for audit
		oldValue := converter.PatientProfileToResponse(profile)

		if req.PhoneNumber != nil {
			profile.PhoneNumber = *req.PhoneNumber
		}
		if req.Address != nil {
			profile.Address = *req.Address
		}
		if req.Latitude != nil && req.Longitude != nil {
			profile.Latitude = req.Latitude
			profile.Longitude = req.Longitude
		}

		if err := u.patientProfileRepo.Update(ctx, tx, profile); err != nil {
			return storeError("update patient profile", err)
		}

		return u.auditService.LogUpdate(ctx, tx, caller.UserID, entity.AuditActionProfileUpdate,
			"patient_profile", profile.UserID.String(), oldValue, converter.PatientProfileToResponse(profile))
	})
	if err != nil {
		if !errors.Is(err, ErrPatientNotFound) && !errors.Is(err, ErrForbidden) {
			u.log.Warnf("Failed to update patient profile: %+v", err)
		}
		return nil, err
	}

	return converter.PatientProfileToResponse(profile), nil
}

func (u *patientProfileUsecase) findOwn(ctx context.Context, db *gorm.DB, caller entity.CallerIdentity) (*entity.PatientProfile, error) {
	if caller.PatientID == nil {
		return nil, ErrForbidden
	}

	profile, err := u.patientProfileRepo.FindByUserID(ctx, db, *caller.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile %s: %+v", *caller.PatientID, err)
		return nil, storeError("find patient profile", err)
	}
	if profile == nil {
		return nil, ErrPatientNotFound
	}
	return profile, nil
}
