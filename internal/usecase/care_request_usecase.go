package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultRequestMatchLimit = 20
	MaxRequestMatchLimit     = 100
)

var (
	ErrInvalidRequestedStart = errors.New("invalid requested_start, use an RFC3339 timestamp")
	ErrLocationRequired      = errors.New("a location is required: pass lat/lng or set one on your profile")
)

type CareRequestUsecase interface {
	CreateCareRequest(ctx context.Context, caller entity.CallerIdentity, req *dto.CreateCareRequestRequest) (*dto.CareRequestResponse, error)
	GetCareRequest(ctx context.Context, caller entity.CallerIdentity, id uuid.UUID) (*dto.CareRequestResponse, error)
	ListMyCareRequests(ctx context.Context, caller entity.CallerIdentity) (*dto.CareRequestListResponse, error)
	MatchCareRequests(ctx context.Context, caller entity.CallerIdentity, query *dto.MatchCareRequestsQuery) (*dto.CareRequestListResponse, error)
}

type careRequestUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	careRequestRepo repository.CareRequestRepository
	providerRepo    repository.ProviderProfileRepository
	auditService    service.AuditService
	guestPatientID  uuid.UUID
}

func NewCareRequestUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	careRequestRepo repository.CareRequestRepository,
	providerRepo repository.ProviderProfileRepository,
	auditService service.AuditService,
	guestPatientID uuid.UUID,
) CareRequestUsecase {
	return &careRequestUsecase{
		db:              db,
		log:             log,
		careRequestRepo: careRequestRepo,
		providerRepo:    providerRepo,
		auditService:    auditService,
		guestPatientID:  guestPatientID,
	}
}

// CreateCareRequest opens a request for the calling patient, or for the guest
// patient when the caller is anonymous
func (u *careRequestUsecase) CreateCareRequest(ctx context.Context, caller entity.CallerIdentity, req *dto.CreateCareRequestRequest) (*dto.CareRequestResponse, error) {
	requestedStart, err := time.Parse(time.RFC3339, req.RequestedStart)
	if err != nil {
		return nil, ErrInvalidRequestedStart
	}

	patientID := u.guestPatientID
	if caller.PatientID != nil {
		patientID = *caller.PatientID
	} else if !caller.IsAnonymous() {
		// Providers and admins do not open care requests.
		return nil, ErrForbidden
	}

	request := &entity.CareRequest{
		PatientID:      patientID,
		Service:        req.Service,
		Description:    req.Description,
		RequestedStart: requestedStart,
		Latitude:       entity.DefaultCareRequestLatitude,
		Longitude:      entity.DefaultCareRequestLongitude,
		Status:         entity.CareRequestStatusOpen,
	}
	if req.Latitude != nil && req.Longitude != nil {
		request.Latitude = *req.Latitude
		request.Longitude = *req.Longitude
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.careRequestRepo.Create(ctx, tx, request); err != nil {
			return storeError("create care request", err)
		}
		return u.auditService.LogCreate(ctx, tx, caller.UserID, entity.AuditActionCareRequestCreate,
			"care_request", request.ID.String(), converter.CareRequestToResponse(request))
	})
	if err != nil {
		u.log.Warnf("Failed to create care request: %+v", err)
		return nil, storeError("create care request", err)
	}

	u.log.Infof("Care request created: id=%s patient=%s service=%s", request.ID, request.PatientID, request.Service)
	return converter.CareRequestToResponse(request), nil
}

// GetCareRequest is open to the owning patient, to providers and to admins
func (u *careRequestUsecase) GetCareRequest(ctx context.Context, caller entity.CallerIdentity, id uuid.UUID) (*dto.CareRequestResponse, error) {
	request, err := u.careRequestRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find care request %s: %+v", id, err)
		return nil, storeError("find care request", err)
	}
	if request == nil {
		return nil, ErrCareRequestNotFound
	}

	if !caller.IsPatient(request.PatientID) && caller.ProviderID == nil && caller.RoleID != entity.RoleIDAdmin {
		return nil, ErrForbidden
	}

	return converter.CareRequestToResponse(request), nil
}

func (u *careRequestUsecase) ListMyCareRequests(ctx context.Context, caller entity.CallerIdentity) (*dto.CareRequestListResponse, error) {
	if caller.PatientID == nil {
		return nil, ErrForbidden
	}

	requests, err := u.careRequestRepo.FindByPatientID(ctx, u.db, *caller.PatientID)
	if err != nil {
		u.log.Warnf("Failed to list care requests for patient %s: %+v", *caller.PatientID, err)
		return nil, storeError("list care requests", err)
	}

	return &dto.CareRequestListResponse{
		CareRequests: converter.CareRequestsToResponses(requests),
		Total:        len(requests),
	}, nil
}

// MatchCareRequests lists open requests for a service near the calling
// provider, nearest first. The query location overrides the profile location.
func (u *careRequestUsecase) MatchCareRequests(ctx context.Context, caller entity.CallerIdentity, query *dto.MatchCareRequestsQuery) (*dto.CareRequestListResponse, error) {
	if caller.ProviderID == nil {
		return nil, ErrForbidden
	}

	lat, lng, err := u.matchCenter(ctx, *caller.ProviderID, query)
	if err != nil {
		return nil, err
	}

	radius := service.DefaultMatchRadiusKm
	if query.RadiusKm != nil && *query.RadiusKm > 0 {
		radius = *query.RadiusKm
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultRequestMatchLimit
	}
	if limit > MaxRequestMatchLimit {
		limit = MaxRequestMatchLimit
	}

	open, err := u.careRequestRepo.FindOpenByService(ctx, u.db, query.Service)
	if err != nil {
		u.log.Warnf("Failed to find open care requests for %q: %+v", query.Service, err)
		return nil, storeError("find open care requests", err)
	}

	type candidate struct {
		request  entity.CareRequest
		distance float64
	}
	candidates := make([]candidate, 0, len(open))
	for _, r := range open {
		d := service.Haversine(lat, lng, r.Latitude, r.Longitude)
		if d > radius {
			continue
		}
		candidates = append(candidates, candidate{request: r, distance: d})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	responses := make([]dto.CareRequestResponse, len(candidates))
	for i := range candidates {
		resp := converter.CareRequestToResponse(&candidates[i].request)
		d := candidates[i].distance
		resp.DistanceKm = &d
		responses[i] = *resp
	}

	return &dto.CareRequestListResponse{
		CareRequests: responses,
		Total:        len(responses),
	}, nil
}

func (u *careRequestUsecase) matchCenter(ctx context.Context, providerID uuid.UUID, query *dto.MatchCareRequestsQuery) (float64, float64, error) {
	if query.Lat != nil && query.Lng != nil {
		return *query.Lat, *query.Lng, nil
	}

	provider, err := u.providerRepo.FindByUserID(ctx, u.db, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return 0, 0, storeError("find provider", err)
	}
	if provider == nil {
		return 0, 0, ErrProviderNotFound
	}
	if !provider.HasLocation() {
		return 0, 0, ErrLocationRequired
	}
	return *provider.Latitude, *provider.Longitude, nil
}
