package service

import (
	"context"
	"fmt"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/scheduling"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// bookingLookbehind widens booking reads so a booking that starts before the
// range but runs into it is still seen.
const bookingLookbehind = 24 * time.Hour

// AvailabilityService loads everything the scheduling engine needs for one
// provider over a time range.
type AvailabilityService interface {
	// Load reads sequentially through db, which may be a transaction.
	Load(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) (*scheduling.Availability, error)
	// LoadConcurrent issues the three reads in parallel on the pool.
	LoadConcurrent(ctx context.Context, providerID uuid.UUID, from, to time.Time) (*scheduling.Availability, error)
	Location() *time.Location
}

type availabilityService struct {
	db               *gorm.DB
	availabilityRepo repository.AvailabilityRepository
	bookingRepo      repository.BookingRepository
	loc              *time.Location
}

func NewAvailabilityService(db *gorm.DB, availabilityRepo repository.AvailabilityRepository, bookingRepo repository.BookingRepository, loc *time.Location) AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &availabilityService{
		db:               db,
		availabilityRepo: availabilityRepo,
		bookingRepo:      bookingRepo,
		loc:              loc,
	}
}

func (s *availabilityService) Location() *time.Location {
	return s.loc
}

func (s *availabilityService) Load(ctx context.Context, db *gorm.DB, providerID uuid.UUID, from, to time.Time) (*scheduling.Availability, error) {
	recurring, err := s.availabilityRepo.FindRecurring(ctx, db, providerID)
	if err != nil {
		return nil, fmt.Errorf("load recurring availability: %w", err)
	}
	oneTime, err := s.availabilityRepo.FindOneTimeInRange(ctx, db, providerID, from.In(s.loc), to.In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("load one-time availability: %w", err)
	}
	bookings, err := s.bookingRepo.FindActiveInWindow(ctx, db, providerID, from.Add(-bookingLookbehind), to)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	return scheduling.NewAvailability(append(recurring, oneTime...), bookings, s.loc), nil
}

func (s *availabilityService) LoadConcurrent(ctx context.Context, providerID uuid.UUID, from, to time.Time) (*scheduling.Availability, error) {
	var (
		recurring []entity.AvailabilityEntry
		oneTime   []entity.AvailabilityEntry
		bookings  []entity.Booking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recurring, err = s.availabilityRepo.FindRecurring(gctx, s.db, providerID)
		if err != nil {
			return fmt.Errorf("load recurring availability: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		oneTime, err = s.availabilityRepo.FindOneTimeInRange(gctx, s.db, providerID, from.In(s.loc), to.In(s.loc))
		if err != nil {
			return fmt.Errorf("load one-time availability: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.bookingRepo.FindActiveInWindow(gctx, s.db, providerID, from.Add(-bookingLookbehind), to)
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scheduling.NewAvailability(append(recurring, oneTime...), bookings, s.loc), nil
}
