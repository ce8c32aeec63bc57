package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/scheduling"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultMatchRadiusKm = 50.0
	DefaultMatchLimit    = 10
	MaxMatchLimit        = 50

	earthRadiusKm = 6371.0
)

// MatchCriteria describes who is needed, where and when
type MatchCriteria struct {
	Service  string
	Lat      float64
	Lng      float64
	When     *time.Time
	RadiusKm float64
	Limit    int
}

// Normalize applies the default radius and clamps the limit to [1, MaxMatchLimit]
func (c MatchCriteria) Normalize() MatchCriteria {
	if c.RadiusKm <= 0 {
		c.RadiusKm = DefaultMatchRadiusKm
	}
	if c.Limit <= 0 {
		c.Limit = DefaultMatchLimit
	}
	if c.Limit > MaxMatchLimit {
		c.Limit = MaxMatchLimit
	}
	return c
}

// RankedProvider is a provider with its distance to the requested location
type RankedProvider struct {
	Profile    entity.ProviderProfile
	DistanceKm float64
}

// ProviderMatcher ranks providers for a service near a location
type ProviderMatcher interface {
	MatchProviders(ctx context.Context, criteria MatchCriteria) ([]RankedProvider, error)
}

type providerMatcher struct {
	db           *gorm.DB
	log          *logrus.Logger
	providerRepo repository.ProviderProfileRepository
	availability AvailabilityService
	clock        scheduling.Clock
}

// NewProviderMatcher creates a matcher. availability may be nil, in which case
// criteria.When is ignored.
func NewProviderMatcher(db *gorm.DB, log *logrus.Logger, providerRepo repository.ProviderProfileRepository, availability AvailabilityService, clock scheduling.Clock) ProviderMatcher {
	if clock == nil {
		clock = scheduling.SystemClock()
	}
	return &providerMatcher{
		db:           db,
		log:          log,
		providerRepo: providerRepo,
		availability: availability,
		clock:        clock,
	}
}

// MatchProviders drops providers without a location or beyond the radius,
// ranks by distance then rating, and when a time is given keeps only those
// who can take a default-length booking then.
func (m *providerMatcher) MatchProviders(ctx context.Context, criteria MatchCriteria) ([]RankedProvider, error) {
	criteria = criteria.Normalize()

	profiles, err := m.providerRepo.FindActiveByService(ctx, m.db, criteria.Service)
	if err != nil {
		return nil, fmt.Errorf("find providers for %q: %w", criteria.Service, err)
	}

	ranked := make([]RankedProvider, 0, len(profiles))
	for _, p := range profiles {
		if !p.HasLocation() {
			continue
		}
		d := Haversine(criteria.Lat, criteria.Lng, *p.Latitude, *p.Longitude)
		if d > criteria.RadiusKm {
			continue
		}
		ranked = append(ranked, RankedProvider{Profile: p, DistanceKm: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Profile.Rating > ranked[j].Profile.Rating
	})

	result := make([]RankedProvider, 0, criteria.Limit)
	for _, r := range ranked {
		if len(result) == criteria.Limit {
			break
		}
		if criteria.When != nil && m.availability != nil {
			ok, err := m.isAvailable(ctx, r.Profile.UserID, *criteria.When)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		result = append(result, r)
	}

	m.log.Debugf("Matched %d of %d providers for service %q", len(result), len(profiles), criteria.Service)
	return result, nil
}

func (m *providerMatcher) isAvailable(ctx context.Context, providerID uuid.UUID, when time.Time) (bool, error) {
	a, err := m.availability.Load(ctx, m.db, providerID, when.Add(-24*time.Hour), when.Add(24*time.Hour))
	if err != nil {
		return false, fmt.Errorf("load availability for provider %s: %w", providerID, err)
	}
	reason := a.Evaluate(when, entity.DefaultBookingDuration*time.Minute, m.clock.Now())
	return reason == scheduling.ReasonNone, nil
}

// Haversine returns the great-circle distance in kilometres
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
