package usecase

import (
	"context"
	"testing"
	"time"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/repository/memory"
	"care-booking-marketplace/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guestPatient = uuid.MustParse("a0000000-0000-0000-0000-000000000001")

func newCareRequestFixture(t *testing.T) (*memory.Store, sqlmock.Sqlmock, CareRequestUsecase) {
	t.Helper()
	store := memory.NewStore()
	db, mock := newTxDB(t)
	log := newTestLogger()

	uc := NewCareRequestUsecase(db, log, store.CareRequestRepository(), store.ProviderRepository(),
		service.NewAuditService(log, store.AuditLogRepository()), guestPatient)
	return store, mock, uc
}

func TestCreateCareRequest(t *testing.T) {
	store, mock, uc := newCareRequestFixture(t)
	ctx := context.Background()
	patientID := seedPatient(t, store)
	req := &dto.CreateCareRequestRequest{Service: "nursing", RequestedStart: "2030-01-07T10:00:00Z"}

	expectCommit(mock)
	resp, err := uc.CreateCareRequest(ctx, patientCaller(patientID), req)
	require.NoError(t, err)
	assert.Equal(t, patientID, resp.PatientID)
	assert.Equal(t, string(entity.CareRequestStatusOpen), resp.Status)
	assert.Equal(t, entity.DefaultCareRequestLatitude, resp.Latitude)
	assert.Equal(t, entity.DefaultCareRequestLongitude, resp.Longitude)

	expectCommit(mock)
	req.Latitude, req.Longitude = floatPtr(40.71), floatPtr(-74.0)
	anonymous, err := uc.CreateCareRequest(ctx, entity.CallerIdentity{}, req)
	require.NoError(t, err)
	assert.Equal(t, guestPatient, anonymous.PatientID)
	assert.Equal(t, 40.71, anonymous.Latitude)

	_, err = uc.CreateCareRequest(ctx, providerCaller(uuid.New()), req)
	assert.ErrorIs(t, err, ErrForbidden)

	req.RequestedStart = "tomorrow morning"
	_, err = uc.CreateCareRequest(ctx, patientCaller(patientID), req)
	assert.ErrorIs(t, err, ErrInvalidRequestedStart)

	assert.Len(t, store.AuditLogs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCareRequest_Visibility(t *testing.T) {
	store, _, uc := newCareRequestFixture(t)
	ctx := context.Background()
	owner := seedPatient(t, store)
	id := seedCareRequest(t, store, owner, entity.CareRequestStatusOpen)
	admin := uuid.New()

	for _, caller := range []entity.CallerIdentity{
		patientCaller(owner),
		providerCaller(uuid.New()),
		{UserID: &admin, RoleID: entity.RoleIDAdmin},
	} {
		_, err := uc.GetCareRequest(ctx, caller, id)
		assert.NoError(t, err)
	}

	_, err := uc.GetCareRequest(ctx, patientCaller(uuid.New()), id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.GetCareRequest(ctx, patientCaller(owner), uuid.New())
	assert.ErrorIs(t, err, ErrCareRequestNotFound)
}

func TestListMyCareRequests(t *testing.T) {
	store, _, uc := newCareRequestFixture(t)
	owner := seedPatient(t, store)
	seedCareRequest(t, store, owner, entity.CareRequestStatusOpen)
	seedCareRequest(t, store, owner, entity.CareRequestStatusClosed)
	seedCareRequest(t, store, seedPatient(t, store), entity.CareRequestStatusOpen)

	resp, err := uc.ListMyCareRequests(context.Background(), patientCaller(owner))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	_, err = uc.ListMyCareRequests(context.Background(), providerCaller(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)
}

func seedCareRequestAt(t *testing.T, store *memory.Store, service string, lat, lng float64, status entity.CareRequestStatus) uuid.UUID {
	t.Helper()
	r := &entity.CareRequest{
		PatientID:      uuid.New(),
		Service:        service,
		RequestedStart: at(monday, "10:00").Add(time.Duration(len(store.CareRequests)) * time.Hour),
		Latitude:       lat,
		Longitude:      lng,
		Status:         status,
	}
	require.NoError(t, store.CareRequestRepository().Create(context.Background(), nil, r))
	return r.ID
}

func TestMatchCareRequests(t *testing.T) {
	store, _, uc := newCareRequestFixture(t)
	ctx := context.Background()
	providerID := seedProvider(t, store, 37.7749, -122.4194, "nursing")

	far := seedCareRequestAt(t, store, "nursing", 37.3382, -121.8863, entity.CareRequestStatusOpen)  // San Jose, ~68 km
	near := seedCareRequestAt(t, store, "nursing", 37.8044, -122.2712, entity.CareRequestStatusOpen) // Oakland, ~13 km
	seedCareRequestAt(t, store, "nursing", 37.78, -122.42, entity.CareRequestStatusMatched)
	seedCareRequestAt(t, store, "physiotherapy", 37.78, -122.42, entity.CareRequestStatusOpen)

	resp, err := uc.MatchCareRequests(ctx, providerCaller(providerID), &dto.MatchCareRequestsQuery{Service: "nursing"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, near, resp.CareRequests[0].ID)
	assert.InDelta(t, 13, *resp.CareRequests[0].DistanceKm, 2)

	resp, err = uc.MatchCareRequests(ctx, providerCaller(providerID), &dto.MatchCareRequestsQuery{Service: "nursing", RadiusKm: floatPtr(100)})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, []uuid.UUID{near, far}, []uuid.UUID{resp.CareRequests[0].ID, resp.CareRequests[1].ID})

	// An explicit centre overrides the profile location.
	resp, err = uc.MatchCareRequests(ctx, providerCaller(providerID), &dto.MatchCareRequestsQuery{
		Service: "nursing", Lat: floatPtr(37.3382), Lng: floatPtr(-121.8863), Limit: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, far, resp.CareRequests[0].ID)
}

func TestMatchCareRequests_Rejections(t *testing.T) {
	store, _, uc := newCareRequestFixture(t)
	ctx := context.Background()
	query := &dto.MatchCareRequestsQuery{Service: "nursing"}

	_, err := uc.MatchCareRequests(ctx, patientCaller(uuid.New()), query)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.MatchCareRequests(ctx, providerCaller(uuid.New()), query)
	assert.ErrorIs(t, err, ErrProviderNotFound)

	// A profile without coordinates needs an explicit centre.
	user := &entity.User{Email: "nolocation@provider.test", RoleID: entity.RoleIDProvider}
	require.NoError(t, store.UserRepository().Create(ctx, nil, user))
	require.NoError(t, store.ProviderRepository().Create(ctx, nil, &entity.ProviderProfile{UserID: user.ID}))
	_, err = uc.MatchCareRequests(ctx, providerCaller(user.ID), query)
	assert.ErrorIs(t, err, ErrLocationRequired)
}
