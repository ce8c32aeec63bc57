package usecase

import (
	"context"
	"testing"
	"time"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/repository/memory"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderFixture(t *testing.T) (*memory.Store, sqlmock.Sqlmock, ProviderUsecase) {
	t.Helper()
	store := memory.NewStore()
	db, mock := newTxDB(t)
	log := newTestLogger()

	availability := service.NewAvailabilityService(db, store.AvailabilityRepository(), store.BookingRepository(), time.UTC)
	matcher := service.NewProviderMatcher(db, log, store.ProviderRepository(), availability, scheduling.FixedClock(testNow))
	uc := NewProviderUsecase(db, log, store.ProviderRepository(), matcher, service.NewAuditService(log, store.AuditLogRepository()))
	return store, mock, uc
}

func TestUpdateMyProviderProfile(t *testing.T) {
	store, mock, uc := newProviderFixture(t)
	providerID := seedProvider(t, store, 37.77, -122.42, "nursing")
	rate := decimal.RequireFromString("85.50")

	expectCommit(mock)
	resp, err := uc.UpdateMyProfile(context.Background(), providerCaller(providerID), &dto.UpdateProviderRequest{
		Services:   []string{"nursing", "wound care"},
		HourlyRate: &rate,
		Latitude:   floatPtr(37.80),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nursing", "wound care"}, resp.Services)
	assert.True(t, rate.Equal(resp.HourlyRate))
	// Coordinates only change as a pair.
	assert.Equal(t, 37.77, *resp.Latitude)

	require.Len(t, store.AuditLogs, 1)
	assert.Equal(t, entity.AuditActionProfileUpdate, store.AuditLogs[0].Action)

	_, err = uc.UpdateMyProfile(context.Background(), patientCaller(uuid.New()), &dto.UpdateProviderRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProvider(t *testing.T) {
	store, _, uc := newProviderFixture(t)
	providerID := seedProvider(t, store, 37.77, -122.42, "nursing")

	resp, err := uc.GetProvider(context.Background(), providerID)
	require.NoError(t, err)
	assert.Equal(t, providerID, resp.ID)

	_, err = uc.GetProvider(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestMatchProviders(t *testing.T) {
	store, _, uc := newProviderFixture(t)
	ctx := context.Background()

	near := seedProvider(t, store, 37.7749, -122.4194, "nursing")
	seedRecurring(t, store, near, time.Tuesday, "09:00", "17:00")
	farther := seedProvider(t, store, 37.8044, -122.2712, "nursing")
	seedRecurring(t, store, farther, time.Monday, "09:00", "17:00")
	seedProvider(t, store, 37.7749, -122.4194, "physiotherapy")

	resp, err := uc.MatchProviders(ctx, &dto.MatchProvidersQuery{Service: "nursing", Lat: 37.7749, Lng: -122.4194})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, near, resp.Providers[0].ID)
	assert.Equal(t, farther, resp.Providers[1].ID)
	assert.Less(t, resp.Providers[0].DistanceKm, resp.Providers[1].DistanceKm)

	// Only the provider working on Monday morning is offered.
	resp, err = uc.MatchProviders(ctx, &dto.MatchProvidersQuery{
		Service: "nursing", Lat: 37.7749, Lng: -122.4194, When: at(monday, "10:00").Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, farther, resp.Providers[0].ID)

	_, err = uc.MatchProviders(ctx, &dto.MatchProvidersQuery{Service: "nursing", When: "soon"})
	assert.ErrorIs(t, err, ErrInvalidWhen)
}
