package usecase

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/infrastructure/metrics"
	"care-booking-marketplace/internal/repository/memory"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2030-01-06 is a Sunday; monday is the next day.
var (
	testNow = time.Date(2030, time.January, 6, 12, 0, 0, 0, time.UTC)
	monday  = time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTxDB returns a gorm handle whose transactions are scripted through mock.
// The memory repositories never touch it.
func newTxDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func at(day time.Time, hhmm string) time.Time {
	return scheduling.MustParseTimeOfDay(hhmm).On(day, time.UTC)
}

func patientCaller(id uuid.UUID) entity.CallerIdentity {
	return entity.CallerIdentity{UserID: &id, PatientID: &id, RoleID: entity.RoleIDPatient}
}

func providerCaller(id uuid.UUID) entity.CallerIdentity {
	return entity.CallerIdentity{UserID: &id, ProviderID: &id, RoleID: entity.RoleIDProvider}
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

func seedProvider(t *testing.T, store *memory.Store, lat, lng float64, services ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	user := &entity.User{Email: uuid.NewString() + "@provider.test", FullName: "Provider", RoleID: entity.RoleIDProvider}
	require.NoError(t, store.UserRepository().Create(ctx, nil, user))

	raw, err := json.Marshal(services)
	require.NoError(t, err)
	require.NoError(t, store.ProviderRepository().Create(ctx, nil, &entity.ProviderProfile{
		UserID:         user.ID,
		LicenseNumber:  user.ID.String(),
		Specialization: "nursing",
		Services:       datatypes.JSON(raw),
		Latitude:       &lat,
		Longitude:      &lng,
	}))
	return user.ID
}

func seedPatient(t *testing.T, store *memory.Store) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	user := &entity.User{Email: uuid.NewString() + "@patient.test", FullName: "Patient", RoleID: entity.RoleIDPatient}
	require.NoError(t, store.UserRepository().Create(ctx, nil, user))
	require.NoError(t, store.PatientRepository().Create(ctx, nil, &entity.PatientProfile{UserID: user.ID}))
	return user.ID
}

func seedRecurring(t *testing.T, store *memory.Store, providerID uuid.UUID, day time.Weekday, start, end string) {
	t.Helper()
	d := int(day)
	require.NoError(t, store.AvailabilityRepository().Create(context.Background(), nil, &entity.AvailabilityEntry{
		ProviderID: providerID,
		Kind:       entity.AvailabilityRecurring,
		DayOfWeek:  &d,
		StartTime:  start,
		EndTime:    end,
	}))
}

func seedOneTime(t *testing.T, store *memory.Store, providerID uuid.UUID, kind entity.AvailabilityKind, date time.Time, start, end string) {
	t.Helper()
	d := datatypes.Date(date)
	require.NoError(t, store.AvailabilityRepository().Create(context.Background(), nil, &entity.AvailabilityEntry{
		ProviderID:   providerID,
		Kind:         kind,
		SpecificDate: &d,
		StartTime:    start,
		EndTime:      end,
	}))
}

func seedBooking(t *testing.T, store *memory.Store, providerID, patientID uuid.UUID, when time.Time, status entity.BookingStatus, careRequestID *uuid.UUID) uuid.UUID {
	t.Helper()
	b := &entity.Booking{
		ProviderID:      providerID,
		PatientID:       patientID,
		CareRequestID:   careRequestID,
		Service:         "nursing",
		ScheduledAt:     when,
		DurationMinutes: 60,
		Status:          status,
	}
	require.NoError(t, store.BookingRepository().Create(context.Background(), nil, b))
	return b.ID
}

func seedCareRequest(t *testing.T, store *memory.Store, patientID uuid.UUID, status entity.CareRequestStatus) uuid.UUID {
	t.Helper()
	r := &entity.CareRequest{
		PatientID:      patientID,
		Service:        "nursing",
		RequestedStart: at(monday, "10:00"),
		Latitude:       entity.DefaultCareRequestLatitude,
		Longitude:      entity.DefaultCareRequestLongitude,
		Status:         status,
	}
	require.NoError(t, store.CareRequestRepository().Create(context.Background(), nil, r))
	return r.ID
}

// bookingFixture wires the booking usecase against the memory store
type bookingFixture struct {
	store    *memory.Store
	mock     sqlmock.Sqlmock
	db       *gorm.DB
	metrics  *metrics.SchedulingMetrics
	mirror   service.CareRequestMirror
	usecase  BookingUsecase
	provider uuid.UUID
	patient  uuid.UUID
	guest    uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	store := memory.NewStore()
	db, mock := newTxDB(t)
	log := newTestLogger()
	m := metrics.NewSchedulingMetrics(prometheus.NewRegistry())

	locks := service.NewBookingLockService(nil, 2*time.Second, log)
	t.Cleanup(locks.Stop)

	availability := service.NewAvailabilityService(db, store.AvailabilityRepository(), store.BookingRepository(), time.UTC)
	mirror := service.NewCareRequestMirror(db, log, store.CareRequestRepository(), store.OutboxRepository(), m)
	audit := service.NewAuditService(log, store.AuditLogRepository())

	f := &bookingFixture{
		store:   store,
		mock:    mock,
		db:      db,
		metrics: m,
		mirror:  mirror,
		guest:   uuid.MustParse("a0000000-0000-0000-0000-000000000001"),
	}
	f.provider = seedProvider(t, store, 37.77, -122.42, "nursing")
	f.patient = seedPatient(t, store)
	seedRecurring(t, store, f.provider, time.Monday, "09:00", "17:00")

	f.usecase = NewBookingUsecase(db, log,
		store.BookingRepository(), store.ProviderRepository(), store.CareRequestRepository(),
		availability, locks, mirror, audit, m, scheduling.FixedClock(testNow), f.guest)
	return f
}
