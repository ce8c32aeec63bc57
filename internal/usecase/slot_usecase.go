package usecase

import (
	"context"
	"time"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/infrastructure/metrics"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SlotUsecase interface {
	GetAvailableSlots(ctx context.Context, providerID uuid.UUID, fromDate, toDate string, durationMinutes int) (*dto.SlotsResponse, error)
}

type slotUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	providerRepo repository.ProviderProfileRepository
	availability service.AvailabilityService
	clock        scheduling.Clock
	metrics      *metrics.SchedulingMetrics
	maxRangeDays int
}

func NewSlotUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerRepo repository.ProviderProfileRepository,
	availability service.AvailabilityService,
	clock scheduling.Clock,
	m *metrics.SchedulingMetrics,
	maxRangeDays int,
) SlotUsecase {
	if clock == nil {
		clock = scheduling.SystemClock()
	}
	if maxRangeDays <= 0 {
		maxRangeDays = scheduling.DefaultMaxRangeDays
	}
	return &slotUsecase{
		db:           db,
		log:          log,
		providerRepo: providerRepo,
		availability: availability,
		clock:        clock,
		metrics:      m,
		maxRangeDays: maxRangeDays,
	}
}

// GetAvailableSlots lists bookable start times per date over [fromDate, toDate].
// Nothing is written; repeated calls at the same instant return the same map.
func (u *slotUsecase) GetAvailableSlots(ctx context.Context, providerID uuid.UUID, fromDate, toDate string, durationMinutes int) (*dto.SlotsResponse, error) {
	started := time.Now()
	loc := u.availability.Location()

	from, err := scheduling.ParseDate(fromDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := scheduling.ParseDate(toDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	query := scheduling.SlotQuery{
		From:     from,
		To:       to,
		Duration: time.Duration(durationMinutes) * time.Minute,
	}
	if err := query.Validate(u.maxRangeDays); err != nil {
		return nil, err
	}

	provider, err := u.providerRepo.FindByUserID(ctx, u.db, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", providerID, err)
		return nil, storeError("find provider", err)
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	// The range covers the whole of toDate.
	availability, err := u.availability.LoadConcurrent(ctx, providerID, from, to.AddDate(0, 0, 1))
	if err != nil {
		u.log.Warnf("Failed to load availability for provider %s: %+v", providerID, err)
		return nil, storeError("load availability", err)
	}

	slots := scheduling.ComputeSlots(availability, query, u.clock.Now())
	u.metrics.ObserveSlotLatency(time.Since(started).Seconds())

	return &dto.SlotsResponse{
		ProviderID:      providerID,
		FromDate:        scheduling.DateKey(from),
		ToDate:          scheduling.DateKey(to),
		DurationMinutes: durationMinutes,
		Timezone:        loc.String(),
		Slots:           slots,
	}, nil
}
