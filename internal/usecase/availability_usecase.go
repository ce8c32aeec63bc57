package usecase

import (
	"context"
	"errors"
	"time"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrProviderNotFound          = errors.New("provider not found")
	ErrAvailabilityEntryNotFound = errors.New("availability entry not found")
)

type AvailabilityUsecase interface {
	ListAvailability(ctx context.Context, providerID uuid.UUID) (*dto.AvailabilityListResponse, error)
	CreateEntry(ctx context.Context, caller entity.CallerIdentity, providerID uuid.UUID, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityEntryResponse, error)
	DeleteEntry(ctx context.Context, caller entity.CallerIdentity, providerID, entryID uuid.UUID) error
}

type availabilityUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	availabilityRepo repository.AvailabilityRepository
	providerRepo     repository.ProviderProfileRepository
	auditService     service.AuditService
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	availabilityRepo repository.AvailabilityRepository,
	providerRepo repository.ProviderProfileRepository,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:               db,
		log:              log,
		availabilityRepo: availabilityRepo,
		providerRepo:     providerRepo,
		auditService:     auditService,
	}
}

func (u *availabilityUsecase) ListAvailability(ctx context.Context, providerID uuid.UUID) (*dto.AvailabilityListResponse, error) {
	if err := u.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}

	entries, err := u.availabilityRepo.FindByProviderID(ctx, u.db, providerID)
	if err != nil {
		u.log.Warnf("Failed to find availability for provider %s: %+v", providerID, err)
		return nil, storeError("find availability", err)
	}

	return converter.AvailabilityToListResponse(entries), nil
}

func (u *availabilityUsecase) CreateEntry(ctx context.Context, caller entity.CallerIdentity, providerID uuid.UUID, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityEntryResponse, error) {
	if !canManageProvider(caller, providerID) {
		return nil, ErrForbidden
	}

	entry, err := buildAvailabilityEntry(providerID, req)
	if err != nil {
		return nil, err
	}

	if err := u.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.availabilityRepo.Create(ctx, tx, entry); err != nil {
			return storeError("create availability", err)
		}
		return u.auditService.LogCreate(ctx, tx, caller.UserID, entity.AuditActionAvailabilityCreate,
			"availability_entry", entry.ID.String(), converter.AvailabilityEntryToResponse(entry))
	})
	if err != nil {
		u.log.Warnf("Failed to create availability entry for provider %s: %+v", providerID, err)
		return nil, storeError("create availability", err)
	}

	u.log.Infof("Availability entry created: id=%s provider=%s type=%s", entry.ID, providerID, entry.Kind)
	return converter.AvailabilityEntryToResponse(entry), nil
}

func (u *availabilityUsecase) DeleteEntry(ctx context.Context, caller entity.CallerIdentity, providerID, entryID uuid.UUID) error {
	if !canManageProvider(caller, providerID) {
		return ErrForbidden
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := u.availabilityRepo.FindByID(ctx, tx, entryID)
		if err != nil {
			return storeError("find availability", err)
		}
		if entry == nil || entry.ProviderID != providerID {
			return ErrAvailabilityEntryNotFound
		}

		affected, err := u.availabilityRepo.Delete(ctx, tx, providerID, entryID)
		if err != nil {
			return storeError("delete availability", err)
		}
		if affected == 0 {
			return ErrAvailabilityEntryNotFound
		}

		return u.auditService.LogDelete(ctx, tx, caller.UserID, entity.AuditActionAvailabilityDelete,
			"availability_entry", entryID.String(), converter.AvailabilityEntryToResponse(entry))
	})
	if err != nil {
		if !errors.Is(err, ErrAvailabilityEntryNotFound) {
			u.log.Warnf("Failed to delete availability entry %s: %+v", entryID, err)
		}
		return err
	}

	u.log.Infof("Availability entry deleted: id=%s provider=%s", entryID, providerID)
	return nil
}

func (u *availabilityUsecase) ensureProvider(ctx context.Context, providerID uuid.UUID) error {
	provider, err := u.providerRepo.FindByUserID(ctx, u.db, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return storeError("find provider", err)
	}
	if provider == nil {
		return ErrProviderNotFound
	}
	return nil
}

// buildAvailabilityEntry checks the entry shape: a recurring entry has a day of
// week and no date, a one-time entry has a date and no day of week, and start
// comes before end. Times are stored normalised to HH:MM.
func buildAvailabilityEntry(providerID uuid.UUID, req *dto.CreateAvailabilityRequest) (*entity.AvailabilityEntry, error) {
	kind := entity.AvailabilityKind(req.Kind)
	if !kind.Valid() {
		return nil, ErrInvalidAvailability
	}

	window, err := scheduling.NewWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if !window.Valid() {
		return nil, ErrInvalidAvailability
	}

	entry := &entity.AvailabilityEntry{
		ProviderID: providerID,
		Kind:       kind,
		StartTime:  window.Start.String(),
		EndTime:    window.End.String(),
		Notes:      req.Notes,
	}

	if kind == entity.AvailabilityRecurring {
		if req.DayOfWeek == nil || req.SpecificDate != nil {
			return nil, ErrInvalidAvailability
		}
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return nil, ErrInvalidAvailability
		}
		day := *req.DayOfWeek
		entry.DayOfWeek = &day
		return entry, nil
	}

	if req.SpecificDate == nil || req.DayOfWeek != nil {
		return nil, ErrInvalidAvailability
	}
	date, err := scheduling.ParseDate(*req.SpecificDate, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	d := datatypes.Date(date)
	entry.SpecificDate = &d
	return entry, nil
}

// canManageProvider allows the provider itself and administrators
func canManageProvider(caller entity.CallerIdentity, providerID uuid.UUID) bool {
	return caller.IsProvider(providerID) || caller.RoleID == entity.RoleIDAdmin
}
