package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/repository/memory"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createRequest(providerID uuid.UUID, when time.Time) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		ProviderID: providerID,
		Service:    "nursing",
		When:       when.Format(time.RFC3339),
	}
}

func TestCreateBooking_Accepted(t *testing.T) {
	f := newBookingFixture(t)
	expectCommit(f.mock)

	req := createRequest(f.provider, at(monday, "10:00"))
	req.PatientName = strPtr("Ada")
	req.IntakeKeywords = []string{"wound care"}

	resp, err := f.usecase.CreateBooking(context.Background(), patientCaller(f.patient), req)
	require.NoError(t, err)

	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
	assert.Equal(t, f.patient, resp.PatientID)
	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, at(monday, "11:00"), resp.EndsAt)
	assert.Equal(t, []string{"wound care"}, resp.IntakeKeywords)
	require.NotNil(t, resp.Provider)
	assert.Equal(t, f.provider, resp.Provider.ID)

	stored, ok := f.store.Booking(resp.ID)
	require.True(t, ok)
	assert.Equal(t, "Ada", *stored.PatientName)

	require.Len(t, f.store.AuditLogs, 1)
	assert.Equal(t, entity.AuditActionBookingCreate, f.store.AuditLogs[0].Action)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_Conflicts(t *testing.T) {
	tests := []struct {
		name         string
		seed         func(t *testing.T, f *bookingFixture)
		when         string
		reason       ConflictReason
		alternatives []time.Time
	}{
		{
			name: "overlapping confirmed booking",
			seed: func(t *testing.T, f *bookingFixture) {
				seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusConfirmed, nil)
			},
			when:         "10:30",
			reason:       ConflictBooking,
			alternatives: []time.Time{at(monday, "11:30"), at(monday, "12:30"), at(monday, "13:30")},
		},
		{
			name: "blocked time",
			seed: func(t *testing.T, f *bookingFixture) {
				seedOneTime(t, f.store, f.provider, entity.AvailabilityOneTimeBlocked, monday, "12:00", "13:30")
			},
			when:   "12:00",
			reason: ConflictBlocked,
		},
		{
			name:   "after working hours",
			seed:   func(*testing.T, *bookingFixture) {},
			when:   "18:00",
			reason: ConflictOutsideHours,
		},
		{
			name: "override without cover has no recurring fallback",
			seed: func(t *testing.T, f *bookingFixture) {
				seedOneTime(t, f.store, f.provider, entity.AvailabilityOneTimeAvailable, monday, "10:00", "11:00")
			},
			when:   "14:00",
			reason: ConflictOutsideHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			tt.seed(t, f)
			expectRollback(f.mock)

			_, err := f.usecase.CreateBooking(context.Background(), patientCaller(f.patient), createRequest(f.provider, at(monday, tt.when)))

			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.reason, conflict.Reason)
			assert.Equal(t, tt.alternatives, conflict.Alternatives)
			assert.Equal(t, 0, f.store.CountBookings(f.provider, entity.BookingStatusPending))
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestCreateBooking_CancelledBookingFreesTime(t *testing.T) {
	f := newBookingFixture(t)
	seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusCancelled, nil)
	expectCommit(f.mock)

	_, err := f.usecase.CreateBooking(context.Background(), patientCaller(f.patient), createRequest(f.provider, at(monday, "10:00")))
	require.NoError(t, err)
}

func TestCreateBooking_InvalidInput(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	req := createRequest(f.provider, at(monday, "10:00"))
	req.When = "next monday"
	_, err := f.usecase.CreateBooking(ctx, patientCaller(f.patient), req)
	assert.ErrorIs(t, err, ErrInvalidWhen)

	_, err = f.usecase.CreateBooking(ctx, patientCaller(f.patient), createRequest(uuid.New(), at(monday, "10:00")))
	assert.ErrorIs(t, err, ErrProviderNotFound)

	missing := uuid.New()
	req = createRequest(f.provider, at(monday, "10:00"))
	req.CareRequestID = &missing
	_, err = f.usecase.CreateBooking(ctx, patientCaller(f.patient), req)
	assert.ErrorIs(t, err, ErrCareRequestNotFound)

	// Past times are checked inside the transaction.
	expectRollback(f.mock)
	_, err = f.usecase.CreateBooking(ctx, patientCaller(f.patient), createRequest(f.provider, testNow.Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrBookingInPast)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_SkipAvailabilityCheck(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	req := createRequest(f.provider, at(monday, "20:00"))
	req.SkipAvailabilityCheck = true

	_, err := f.usecase.CreateBooking(ctx, patientCaller(f.patient), req)
	assert.ErrorIs(t, err, ErrForbidden)

	other := seedProvider(t, f.store, 0, 0, "nursing")
	_, err = f.usecase.CreateBooking(ctx, providerCaller(other), req)
	assert.ErrorIs(t, err, ErrForbidden)

	expectCommit(f.mock)
	resp, err := f.usecase.CreateBooking(ctx, providerCaller(f.provider), req)
	require.NoError(t, err)
	assert.Equal(t, f.guest, resp.PatientID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_PatientResolution(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	owner := seedPatient(t, f.store)
	requestID := seedCareRequest(t, f.store, owner, entity.CareRequestStatusOpen)

	expectCommit(f.mock)
	anonymous, err := f.usecase.CreateBooking(ctx, entity.CallerIdentity{}, createRequest(f.provider, at(monday, "09:00")))
	require.NoError(t, err)
	assert.Equal(t, f.guest, anonymous.PatientID)

	expectCommit(f.mock)
	req := createRequest(f.provider, at(monday, "11:00"))
	req.CareRequestID = &requestID
	viaRequest, err := f.usecase.CreateBooking(ctx, providerCaller(f.provider), req)
	require.NoError(t, err)
	assert.Equal(t, owner, viaRequest.PatientID)

	// Another patient cannot book against someone else's request.
	_, err = f.usecase.CreateBooking(ctx, patientCaller(f.patient), req)
	assert.ErrorIs(t, err, ErrForbidden)

	// Creation never touches the care request.
	got, _ := f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusOpen, got.Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_ConcurrentRequestsDoNotDoubleBook(t *testing.T) {
	f := newBookingFixture(t)
	const attempts = 5

	// The provider lock serialises the transactions: one commits, the rest roll back.
	expectCommit(f.mock)
	for i := 1; i < attempts; i++ {
		expectRollback(f.mock)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			// Overlapping requests: 10:00, 10:10, 10:20, ...
			when := at(monday, "10:00").Add(time.Duration(offset*10) * time.Minute)
			_, err := f.usecase.CreateBooking(context.Background(), patientCaller(f.patient), createRequest(f.provider, when))

			mu.Lock()
			defer mu.Unlock()
			var conflict *ConflictError
			switch {
			case err == nil:
				created++
			case errors.As(err, &conflict) && conflict.Reason == ConflictBooking:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.store.CountBookings(f.provider, entity.BookingStatusPending))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_StoreFailure(t *testing.T) {
	f := newBookingFixture(t)
	f.store.FailBookingReads = true
	expectRollback(f.mock)

	_, err := f.usecase.CreateBooking(context.Background(), patientCaller(f.patient), createRequest(f.provider, at(monday, "10:00")))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, memory.ErrInjected)

	var conflict *ConflictError
	assert.False(t, errors.As(err, &conflict))
}

func statusUpdate(status entity.BookingStatus) *dto.UpdateBookingRequest {
	s := string(status)
	return &dto.UpdateBookingRequest{Status: &s}
}

func TestUpdateBooking_MirrorsCareRequest(t *testing.T) {
	tests := []struct {
		name      string
		prior     entity.BookingStatus
		target    entity.BookingStatus
		asPatient bool
		initial   entity.CareRequestStatus
		want      entity.CareRequestStatus
	}{
		{"confirm matches", entity.BookingStatusPending, entity.BookingStatusConfirmed, false, entity.CareRequestStatusOpen, entity.CareRequestStatusMatched},
		{"decline closes", entity.BookingStatusPending, entity.BookingStatusDeclined, false, entity.CareRequestStatusOpen, entity.CareRequestStatusClosed},
		{"cancel after confirm reopens", entity.BookingStatusConfirmed, entity.BookingStatusCancelled, true, entity.CareRequestStatusMatched, entity.CareRequestStatusOpen},
		{"provider cancel after confirm reopens", entity.BookingStatusConfirmed, entity.BookingStatusCancelled, false, entity.CareRequestStatusMatched, entity.CareRequestStatusOpen},
		{"cancel while pending leaves request", entity.BookingStatusPending, entity.BookingStatusCancelled, true, entity.CareRequestStatusOpen, entity.CareRequestStatusOpen},
		{"complete leaves request", entity.BookingStatusConfirmed, entity.BookingStatusCompleted, false, entity.CareRequestStatusMatched, entity.CareRequestStatusMatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			requestID := seedCareRequest(t, f.store, f.patient, tt.initial)
			bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), tt.prior, &requestID)

			caller := providerCaller(f.provider)
			if tt.asPatient {
				caller = patientCaller(f.patient)
			}

			expectCommit(f.mock)
			resp, err := f.usecase.UpdateBooking(context.Background(), caller, bookingID, statusUpdate(tt.target))
			require.NoError(t, err)
			assert.Equal(t, string(tt.target), resp.Status)

			got, _ := f.store.CareRequest(requestID)
			assert.Equal(t, tt.want, got.Status)
			assert.Empty(t, f.store.PendingOutbox())
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateBooking_MirrorFailureDoesNotFailUpdate(t *testing.T) {
	f := newBookingFixture(t)
	requestID := seedCareRequest(t, f.store, f.patient, entity.CareRequestStatusOpen)
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, &requestID)
	f.store.SetFailCareRequestUpdate(true)

	expectCommit(f.mock)
	resp, err := f.usecase.UpdateBooking(context.Background(), providerCaller(f.provider), bookingID, statusUpdate(entity.BookingStatusConfirmed))
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusConfirmed), resp.Status)

	got, _ := f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusOpen, got.Status)

	pending := f.store.PendingOutbox()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	// The deliverer converges the request once the store recovers.
	f.store.SetFailCareRequestUpdate(false)
	deliverer := service.NewMirrorDeliverer(f.db, newTestLogger(), f.store.OutboxRepository(), f.mirror, f.metrics, time.Second, 10)
	delivered, err := deliverer.DeliverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	got, _ = f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusMatched, got.Status)
	assert.Empty(t, f.store.PendingOutbox())
}

func TestUpdateBooking_RedeliveredMirrorDoesNotOverwriteNewerStatus(t *testing.T) {
	f := newBookingFixture(t)
	requestID := seedCareRequest(t, f.store, f.patient, entity.CareRequestStatusOpen)
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, &requestID)

	f.store.SetFailCareRequestUpdate(true)
	expectCommit(f.mock)
	_, err := f.usecase.UpdateBooking(context.Background(), providerCaller(f.provider), bookingID, statusUpdate(entity.BookingStatusConfirmed))
	require.NoError(t, err)
	require.Len(t, f.store.PendingOutbox(), 1)

	f.store.SetFailCareRequestUpdate(false)
	expectCommit(f.mock)
	_, err = f.usecase.UpdateBooking(context.Background(), patientCaller(f.patient), bookingID, statusUpdate(entity.BookingStatusCancelled))
	require.NoError(t, err)

	got, _ := f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusOpen, got.Status)

	// The failed confirm event is still pending but superseded by the cancel.
	deliverer := service.NewMirrorDeliverer(f.db, newTestLogger(), f.store.OutboxRepository(), f.mirror, f.metrics, time.Second, 10)
	delivered, err := deliverer.DeliverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	booking, _ := f.store.Booking(bookingID)
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	got, _ = f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusOpen, got.Status)
	assert.Empty(t, f.store.PendingOutbox())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBooking_DeclineWithReferral(t *testing.T) {
	f := newBookingFixture(t)
	referred := seedProvider(t, f.store, 37.78, -122.41, "nursing")
	seedRecurring(t, f.store, referred, time.Monday, "09:00", "17:00")
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, nil)

	req := statusUpdate(entity.BookingStatusDeclined)
	req.DeclineReason = strPtr("Fully booked this week")
	req.ReferredProviderID = &referred

	expectCommit(f.mock)
	resp, err := f.usecase.UpdateBooking(context.Background(), providerCaller(f.provider), bookingID, req)
	require.NoError(t, err)

	assert.Equal(t, string(entity.BookingStatusDeclined), resp.Status)
	assert.Equal(t, "Fully booked this week", *resp.DeclineReason)
	assert.Equal(t, referred, *resp.ReferredProviderID)

	// The referred provider's schedule is untouched.
	assert.Equal(t, 0, f.store.CountBookings(referred, entity.BookingStatusPending, entity.BookingStatusConfirmed))

	// Referring to yourself or to nobody is rejected.
	otherID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "12:00"), entity.BookingStatusPending, nil)
	req.ReferredProviderID = &f.provider
	_, err = f.usecase.UpdateBooking(context.Background(), providerCaller(f.provider), otherID, req)
	assert.ErrorIs(t, err, ErrInvalidReferral)

	unknown := uuid.New()
	req.ReferredProviderID = &unknown
	_, err = f.usecase.UpdateBooking(context.Background(), providerCaller(f.provider), otherID, req)
	assert.ErrorIs(t, err, ErrInvalidReferral)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		prior  entity.BookingStatus
		target entity.BookingStatus
		caller func(f *bookingFixture) entity.CallerIdentity
		want   error
	}{
		{
			name:   "terminal status",
			prior:  entity.BookingStatusCompleted,
			target: entity.BookingStatusCancelled,
			caller: func(f *bookingFixture) entity.CallerIdentity { return patientCaller(f.patient) },
			want:   ErrInvalidTransition,
		},
		{
			name:   "provider completes declined booking",
			prior:  entity.BookingStatusDeclined,
			target: entity.BookingStatusCompleted,
			caller: func(f *bookingFixture) entity.CallerIdentity { return providerCaller(f.provider) },
			want:   ErrInvalidTransition,
		},
		{
			name:   "confirm twice",
			prior:  entity.BookingStatusConfirmed,
			target: entity.BookingStatusConfirmed,
			caller: func(f *bookingFixture) entity.CallerIdentity { return providerCaller(f.provider) },
			want:   ErrInvalidTransition,
		},
		{
			name:   "complete before confirm",
			prior:  entity.BookingStatusPending,
			target: entity.BookingStatusCompleted,
			caller: func(f *bookingFixture) entity.CallerIdentity { return providerCaller(f.provider) },
			want:   ErrInvalidTransition,
		},
		{
			name:   "provider cancels pending",
			prior:  entity.BookingStatusPending,
			target: entity.BookingStatusCancelled,
			caller: func(f *bookingFixture) entity.CallerIdentity { return providerCaller(f.provider) },
			want:   ErrInvalidTransition,
		},
		{
			name:   "patient confirms",
			prior:  entity.BookingStatusPending,
			target: entity.BookingStatusConfirmed,
			caller: func(f *bookingFixture) entity.CallerIdentity { return patientCaller(f.patient) },
			want:   ErrForbidden,
		},
		{
			name:   "stranger cancels",
			prior:  entity.BookingStatusPending,
			target: entity.BookingStatusCancelled,
			caller: func(*bookingFixture) entity.CallerIdentity { return patientCaller(uuid.New()) },
			want:   ErrForbidden,
		},
		{
			name:   "anonymous caller",
			prior:  entity.BookingStatusPending,
			target: entity.BookingStatusCancelled,
			caller: func(*bookingFixture) entity.CallerIdentity { return entity.CallerIdentity{} },
			want:   ErrForbidden,
		},
		{
			name:   "back to pending",
			prior:  entity.BookingStatusConfirmed,
			target: entity.BookingStatusPending,
			caller: func(f *bookingFixture) entity.CallerIdentity { return providerCaller(f.provider) },
			want:   ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), tt.prior, nil)

			_, err := f.usecase.UpdateBooking(context.Background(), tt.caller(f), bookingID, statusUpdate(tt.target))
			assert.ErrorIs(t, err, tt.want)

			got, _ := f.store.Booking(bookingID)
			assert.Equal(t, tt.prior, got.Status)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

// racingBookingRepository confirms the booking right after it is read, as a
// concurrent request would.
type racingBookingRepository struct {
	repository.BookingRepository
}

func (r racingBookingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.BookingRepository.FindByID(ctx, db, id)
	if err != nil || b == nil {
		return b, err
	}
	_, err = r.BookingRepository.UpdateStatusIf(ctx, db, id, b.Status, map[string]interface{}{"status": entity.BookingStatusConfirmed})
	return b, err
}

func TestUpdateBooking_LostRace(t *testing.T) {
	f := newBookingFixture(t)
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, nil)

	log := newTestLogger()
	racing := NewBookingUsecase(f.db, log,
		racingBookingRepository{f.store.BookingRepository()}, f.store.ProviderRepository(), f.store.CareRequestRepository(),
		nil, nil, f.mirror, service.NewAuditService(log, f.store.AuditLogRepository()), f.metrics, nil, f.guest)

	expectRollback(f.mock)
	_, err := racing.UpdateBooking(context.Background(), providerCaller(f.provider), bookingID, statusUpdate(entity.BookingStatusDeclined))
	assert.ErrorIs(t, err, ErrBookingStatusChanged)

	got, _ := f.store.Booking(bookingID)
	assert.Equal(t, entity.BookingStatusConfirmed, got.Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBooking_IntakeEdits(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, nil)

	expectCommit(f.mock)
	resp, err := f.usecase.UpdateBooking(ctx, patientCaller(f.patient), bookingID, &dto.UpdateBookingRequest{
		PatientPhone: strPtr("+14155550100"),
		AddressNotes: strPtr("Ring twice"),
	})
	require.NoError(t, err)
	assert.Equal(t, "+14155550100", *resp.PatientPhone)
	assert.Equal(t, "Ring twice", *resp.AddressNotes)

	// A provider's intake edits are ignored.
	resp, err = f.usecase.UpdateBooking(ctx, providerCaller(f.provider), bookingID, &dto.UpdateBookingRequest{AddressNotes: strPtr("Back door")})
	require.NoError(t, err)
	assert.Equal(t, "Ring twice", *resp.AddressNotes)

	cancelled := string(entity.BookingStatusCancelled)
	_, err = f.usecase.UpdateBooking(ctx, patientCaller(f.patient), bookingID, &dto.UpdateBookingRequest{Status: &cancelled, AddressNotes: strPtr("x")})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	_, err = f.usecase.UpdateBooking(ctx, patientCaller(f.patient), bookingID, &dto.UpdateBookingRequest{})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	confirmedID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "12:00"), entity.BookingStatusConfirmed, nil)
	_, err = f.usecase.UpdateBooking(ctx, patientCaller(f.patient), confirmedID, &dto.UpdateBookingRequest{AddressNotes: strPtr("x")})
	assert.ErrorIs(t, err, ErrBookingNotEditable)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	requestID := seedCareRequest(t, f.store, f.patient, entity.CareRequestStatusClosed)

	pendingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "09:00"), entity.BookingStatusPending, nil)
	declinedID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusDeclined, &requestID)

	assert.ErrorIs(t, f.usecase.DeleteBooking(ctx, patientCaller(f.patient), pendingID), ErrBookingNotDeletable)
	assert.ErrorIs(t, f.usecase.DeleteBooking(ctx, providerCaller(f.provider), declinedID), ErrForbidden)
	assert.ErrorIs(t, f.usecase.DeleteBooking(ctx, patientCaller(f.patient), uuid.New()), ErrBookingNotFound)

	expectCommit(f.mock)
	require.NoError(t, f.usecase.DeleteBooking(ctx, patientCaller(f.patient), declinedID))

	_, ok := f.store.Booking(declinedID)
	assert.False(t, ok)
	got, _ := f.store.CareRequest(requestID)
	assert.Equal(t, entity.CareRequestStatusClosed, got.Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetAndListBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	bookingID := seedBooking(t, f.store, f.provider, f.patient, at(monday, "10:00"), entity.BookingStatusPending, nil)
	seedBooking(t, f.store, f.provider, seedPatient(t, f.store), at(monday, "12:00"), entity.BookingStatusPending, nil)

	_, err := f.usecase.GetBooking(ctx, patientCaller(f.patient), bookingID)
	require.NoError(t, err)
	_, err = f.usecase.GetBooking(ctx, providerCaller(f.provider), bookingID)
	require.NoError(t, err)
	_, err = f.usecase.GetBooking(ctx, patientCaller(uuid.New()), bookingID)
	assert.ErrorIs(t, err, ErrForbidden)

	mine, err := f.usecase.ListBookings(ctx, patientCaller(f.patient), false)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)

	theirs, err := f.usecase.ListBookings(ctx, providerCaller(f.provider), true)
	require.NoError(t, err)
	assert.Equal(t, 2, theirs.Total)

	_, err = f.usecase.ListBookings(ctx, patientCaller(f.patient), true)
	assert.ErrorIs(t, err, ErrForbidden)
}
