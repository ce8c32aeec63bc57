package usecase

import (
	"context"
	"encoding/json"
	"time"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProviderUsecase interface {
	GetProvider(ctx context.Context, providerID uuid.UUID) (*dto.ProviderResponse, error)
	UpdateMyProfile(ctx context.Context, caller entity.CallerIdentity, req *dto.UpdateProviderRequest) (*dto.ProviderResponse, error)
	MatchProviders(ctx context.Context, query *dto.MatchProvidersQuery) (*dto.ProviderMatchResponse, error)
}

type providerUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	providerRepo repository.ProviderProfileRepository
	matcher      service.ProviderMatcher
	auditService service.AuditService
}

func NewProviderUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerRepo repository.ProviderProfileRepository,
	matcher service.ProviderMatcher,
	auditService service.AuditService,
) ProviderUsecase {
	return &providerUsecase{
		db:           db,
		log:          log,
		providerRepo: providerRepo,
		matcher:      matcher,
		auditService: auditService,
	}
}

func (u *providerUsecase) GetProvider(ctx context.Context, providerID uuid.UUID) (*dto.ProviderResponse, error) {
	provider, err := u.providerRepo.FindByUserID(ctx, u.db, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return nil, storeError("find provider", err)
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	return converter.ProviderToResponse(provider), nil
}

func (u *providerUsecase) UpdateMyProfile(ctx context.Context, caller entity.CallerIdentity, req *dto.UpdateProviderRequest) (*dto.ProviderResponse, error) {
	if caller.ProviderID == nil {
		return nil, ErrForbidden
	}

	provider, err := u.providerRepo.FindByUserID(ctx, u.db, *caller.ProviderID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", *caller.ProviderID, err)
		return nil, storeError("find provider", err)
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	before := converter.ProviderToResponse(provider)

	if req.Title != nil {
		provider.Title = *req.Title
	}
	if req.Specialization != nil {
		provider.Specialization = *req.Specialization
	}
	if req.Biography != nil {
		provider.Biography = *req.Biography
	}
	if req.Services != nil {
		services, err := json.Marshal(req.Services)
		if err != nil {
			return nil, err
		}
		provider.Services = datatypes.JSON(services)
	}
	if req.Latitude != nil && req.Longitude != nil {
		provider.Latitude = req.Latitude
		provider.Longitude = req.Longitude
	}
	if req.HourlyRate != nil {
		provider.HourlyRate = *req.HourlyRate
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.providerRepo.Update(ctx, tx, provider); err != nil {
			return storeError("update provider", err)
		}
		return u.auditService.LogUpdate(ctx, tx, caller.UserID, entity.AuditActionProfileUpdate,
			"provider_profile", provider.UserID.String(), before, converter.ProviderToResponse(provider))
	})
	if err != nil {
		u.log.Warnf("Failed to update provider %s: %+v", provider.UserID, err)
		return nil, storeError("update provider", err)
	}

	u.log.Infof("Provider profile updated: id=%s", provider.UserID)
	return converter.ProviderToResponse(provider), nil
}

// MatchProviders ranks active providers of a service around a point
func (u *providerUsecase) MatchProviders(ctx context.Context, query *dto.MatchProvidersQuery) (*dto.ProviderMatchResponse, error) {
	criteria := service.MatchCriteria{
		Service: query.Service,
		Lat:     query.Lat,
		Lng:     query.Lng,
		Limit:   query.Limit,
	}
	if query.RadiusKm != nil {
		criteria.RadiusKm = *query.RadiusKm
	}
	if query.When != "" {
		when, err := time.Parse(time.RFC3339, query.When)
		if err != nil {
			return nil, ErrInvalidWhen
		}
		criteria.When = &when
	}

	ranked, err := u.matcher.MatchProviders(ctx, criteria)
	if err != nil {
		u.log.Warnf("Failed to match providers for %q: %+v", query.Service, err)
		return nil, storeError("match providers", err)
	}

	return &dto.ProviderMatchResponse{
		Providers: converter.RankedProvidersToResponses(ranked),
		Total:     len(ranked),
	}, nil
}
