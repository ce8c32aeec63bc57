package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/repository/memory"
	"care-booking-marketplace/internal/scheduling"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addProvider(t *testing.T, store *memory.Store, lat, lng, rating float64, services ...string) uuid.UUID {
	t.Helper()
	raw, err := json.Marshal(services)
	require.NoError(t, err)

	id := uuid.New()
	active := true
	require.NoError(t, store.UserRepository().Create(context.Background(), nil, &entity.User{
		ID: id, RoleID: entity.RoleIDProvider, Email: id.String() + "@example.com", IsActive: &active,
	}))
	require.NoError(t, store.ProviderRepository().Create(context.Background(), nil, &entity.ProviderProfile{
		UserID:    id,
		Services:  raw,
		Latitude:  floatPtr(lat),
		Longitude: floatPtr(lng),
		Rating:    rating,
	}))
	return id
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(37.77, -122.42, 37.77, -122.42), 1e-9)
	// San Francisco to Los Angeles
	assert.InDelta(t, 559, Haversine(37.7749, -122.4194, 34.0522, -118.2437), 5)
}

func TestMatchProviders_RanksByDistanceThenRating(t *testing.T) {
	store := memory.NewStore()
	far := addProvider(t, store, 37.90, -122.42, 5, "nursing")
	nearLow := addProvider(t, store, 37.78, -122.42, 3, "nursing")
	nearHigh := addProvider(t, store, 37.78, -122.42, 4.8, "nursing")
	addProvider(t, store, 37.78, -122.42, 5, "physiotherapy")
	addProvider(t, store, 40.71, -74.00, 5, "nursing")

	matcher := NewProviderMatcher(nil, newTestLogger(), store.ProviderRepository(), nil, nil)
	ranked, err := matcher.MatchProviders(context.Background(), MatchCriteria{Service: "nursing", Lat: 37.77, Lng: -122.42})
	require.NoError(t, err)

	require.Len(t, ranked, 3)
	assert.Equal(t, nearHigh, ranked[0].Profile.UserID)
	assert.Equal(t, nearLow, ranked[1].Profile.UserID)
	assert.Equal(t, far, ranked[2].Profile.UserID)
}

func TestMatchProviders_RadiusAndLimit(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 5; i++ {
		addProvider(t, store, 37.77+float64(i)*0.01, -122.42, 4, "nursing")
	}

	matcher := NewProviderMatcher(nil, newTestLogger(), store.ProviderRepository(), nil, nil)

	ranked, err := matcher.MatchProviders(context.Background(), MatchCriteria{Service: "nursing", Lat: 37.77, Lng: -122.42, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ranked, 2)

	ranked, err = matcher.MatchProviders(context.Background(), MatchCriteria{Service: "nursing", Lat: 37.77, Lng: -122.42, RadiusKm: 2.5})
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
}

func TestMatchProviders_FiltersByAvailability(t *testing.T) {
	store := memory.NewStore()
	open := addProvider(t, store, 37.78, -122.42, 4, "nursing")
	closed := addProvider(t, store, 37.78, -122.42, 5, "nursing")

	monday := int(time.Monday)
	require.NoError(t, store.AvailabilityRepository().Create(context.Background(), nil, &entity.AvailabilityEntry{
		ProviderID: open, Kind: entity.AvailabilityRecurring, DayOfWeek: &monday, StartTime: "09:00", EndTime: "17:00",
	}))

	when := time.Date(2030, time.January, 7, 10, 0, 0, 0, time.UTC)
	clock := scheduling.FixedClock(when.Add(-48 * time.Hour))
	availability := NewAvailabilityService(nil, store.AvailabilityRepository(), store.BookingRepository(), time.UTC)
	matcher := NewProviderMatcher(nil, newTestLogger(), store.ProviderRepository(), availability, clock)

	ranked, err := matcher.MatchProviders(context.Background(), MatchCriteria{Service: "nursing", Lat: 37.77, Lng: -122.42, When: &when})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, open, ranked[0].Profile.UserID)
	assert.NotEqual(t, closed, ranked[0].Profile.UserID)
}

func TestMatchCriteriaNormalize(t *testing.T) {
	c := MatchCriteria{Limit: 500}.Normalize()
	assert.Equal(t, MaxMatchLimit, c.Limit)
	assert.Equal(t, DefaultMatchRadiusKm, c.RadiusKm)

	c = MatchCriteria{}.Normalize()
	assert.Equal(t, DefaultMatchLimit, c.Limit)
}
