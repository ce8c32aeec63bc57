package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/infrastructure/metrics"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrCareRequestNotFound  = errors.New("care request not found")
	ErrInvalidTransition    = errors.New("booking status transition not allowed")
	ErrBookingStatusChanged = errors.New("booking status changed concurrently, reload and retry")
	ErrBookingNotDeletable  = errors.New("only cancelled or declined bookings can be deleted")
	ErrBookingNotEditable   = errors.New("booking details can only be edited while pending")
	ErrInvalidReferral      = errors.New("referred provider must be another existing provider")
)

// ProviderLocker serialises booking creation for one provider across callers
type ProviderLocker interface {
	Acquire(ctx context.Context, providerID uuid.UUID) (release func(), err error)
}

type BookingUsecase interface {
	CreateBooking(ctx context.Context, caller entity.CallerIdentity, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID) (*dto.BookingResponse, error)
	ListBookings(ctx context.Context, caller entity.CallerIdentity, asProvider bool) (*dto.BookingListResponse, error)
	UpdateBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	DeleteBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID) error
}

type bookingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	bookingRepo     repository.BookingRepository
	providerRepo    repository.ProviderProfileRepository
	careRequestRepo repository.CareRequestRepository
	availability    service.AvailabilityService
	locker          ProviderLocker
	mirror          service.CareRequestMirror
	auditService    service.AuditService
	metrics         *metrics.SchedulingMetrics
	clock           scheduling.Clock
	guestPatientID  uuid.UUID
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	providerRepo repository.ProviderProfileRepository,
	careRequestRepo repository.CareRequestRepository,
	availability service.AvailabilityService,
	locker ProviderLocker,
	mirror service.CareRequestMirror,
	auditService service.AuditService,
	m *metrics.SchedulingMetrics,
	clock scheduling.Clock,
	guestPatientID uuid.UUID,
) BookingUsecase {
	if clock == nil {
		clock = scheduling.SystemClock()
	}
	return &bookingUsecase{
		db:              db,
		log:             log,
		bookingRepo:     bookingRepo,
		providerRepo:    providerRepo,
		careRequestRepo: careRequestRepo,
		availability:    availability,
		locker:          locker,
		mirror:          mirror,
		auditService:    auditService,
		metrics:         m,
		clock:           clock,
		guestPatientID:  guestPatientID,
	}
}

// CreateBooking validates a requested time against the provider's schedule and
// stores a pending booking.
//
// Flow:
// 1. Parse when and resolve provider, care request and patient
// 2. Take the per-provider lock (in-process + optional Redis)
// 3. In one transaction: advisory lock, load availability, evaluate, insert, audit
//
// At most one of two overlapping concurrent requests for a provider succeeds.
func (u *bookingUsecase) CreateBooking(ctx context.Context, caller entity.CallerIdentity, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	when, err := time.Parse(time.RFC3339, req.When)
	if err != nil {
		u.metrics.ObserveBooking(metrics.OutcomeInvalid, "when")
		return nil, ErrInvalidWhen
	}

	minutes := req.DurationMinutes
	if minutes == 0 {
		minutes = entity.DefaultBookingDuration
	}
	if minutes < 0 {
		u.metrics.ObserveBooking(metrics.OutcomeInvalid, "duration")
		return nil, ErrInvalidDuration
	}
	duration := time.Duration(minutes) * time.Minute

	if req.SkipAvailabilityCheck && !caller.IsProvider(req.ProviderID) {
		return nil, ErrForbidden
	}

	provider, err := u.providerRepo.FindByUserID(ctx, u.db, req.ProviderID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", req.ProviderID, err)
		return nil, storeError("find provider", err)
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	var careRequest *entity.CareRequest
	if req.CareRequestID != nil {
		careRequest, err = u.careRequestRepo.FindByID(ctx, u.db, *req.CareRequestID)
		if err != nil {
			u.log.Warnf("Failed to find care request %s: %+v", *req.CareRequestID, err)
			return nil, storeError("find care request", err)
		}
		if careRequest == nil {
			return nil, ErrCareRequestNotFound
		}
		if caller.PatientID != nil && !caller.IsPatient(careRequest.PatientID) {
			return nil, ErrForbidden
		}
	}

	booking := &entity.Booking{
		ProviderID:       req.ProviderID,
		PatientID:        u.resolvePatient(caller, careRequest),
		CareRequestID:    req.CareRequestID,
		Service:          req.Service,
		ScheduledAt:      when,
		DurationMinutes:  minutes,
		Status:           entity.BookingStatusPending,
		PatientName:      req.PatientName,
		PatientPhone:     req.PatientPhone,
		AddressNotes:     req.AddressNotes,
		Consent:          req.Consent,
		IntakeTranscript: req.IntakeTranscript,
		IntakeSessionID:  req.IntakeSessionID,
	}
	if len(req.IntakeKeywords) > 0 {
		keywords, err := json.Marshal(req.IntakeKeywords)
		if err != nil {
			return nil, err
		}
		booking.IntakeKeywords = datatypes.JSON(keywords)
	}

	waitStarted := time.Now()
	release, err := u.locker.Acquire(ctx, req.ProviderID)
	u.metrics.ObserveLockWait(time.Since(waitStarted).Seconds())
	if err != nil {
		if errors.Is(err, service.ErrLockTimeout) {
			u.metrics.ObserveBooking(metrics.OutcomeLockTimeout, "")
			u.log.Warnf("Timed out waiting for booking lock of provider %s", req.ProviderID)
			return nil, err
		}
		u.metrics.ObserveBooking(metrics.OutcomeError, "")
		return nil, err
	}
	defer release()

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.bookingRepo.LockProvider(ctx, tx, req.ProviderID); err != nil {
			return storeError("lock provider", err)
		}

		if err := u.checkAvailability(ctx, tx, req, when, duration); err != nil {
			return err
		}

		if err := u.bookingRepo.Create(ctx, tx, booking); err != nil {
			return storeError("create booking", err)
		}

		return u.auditService.LogCreate(ctx, tx, caller.UserID, entity.AuditActionBookingCreate,
			"booking", booking.ID.String(), converter.BookingToResponse(booking))
	})
	if err != nil {
		u.observeRejection(err)
		return nil, err
	}

	u.metrics.ObserveBooking(metrics.OutcomeCreated, "")
	u.log.Infof("Booking created: id=%s provider=%s patient=%s at=%s", booking.ID, booking.ProviderID, booking.PatientID, booking.ScheduledAt.Format(time.RFC3339))

	booking.Provider = provider
	return converter.BookingToResponse(booking), nil
}

// checkAvailability runs the shared availability predicate. A provider booking
// itself with skipAvailabilityCheck bypasses working hours and overlaps but
// never the past-time rule.
func (u *bookingUsecase) checkAvailability(ctx context.Context, tx *gorm.DB, req *dto.CreateBookingRequest, when time.Time, duration time.Duration) error {
	now := u.clock.Now()
	if !when.After(now) {
		return ErrBookingInPast
	}
	if req.SkipAvailabilityCheck {
		return nil
	}

	// Bookings within a day either side of when are enough to find an overlap.
	availability, err := u.availability.Load(ctx, tx, req.ProviderID, when, when.Add(24*time.Hour))
	if err != nil {
		return storeError("load availability", err)
	}

	return conflictFromReason(availability.Evaluate(when, duration, now), when)
}

func (u *bookingUsecase) observeRejection(err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		u.metrics.ObserveBooking(metrics.OutcomeConflict, string(conflict.Reason))
	case errors.Is(err, ErrBookingInPast):
		u.metrics.ObserveBooking(metrics.OutcomeInvalid, "past")
	default:
		u.metrics.ObserveBooking(metrics.OutcomeError, "")
		u.log.Warnf("Failed to create booking: %+v", err)
	}
}

// resolvePatient prefers the caller, then the care request owner, then the guest
func (u *bookingUsecase) resolvePatient(caller entity.CallerIdentity, careRequest *entity.CareRequest) uuid.UUID {
	if caller.PatientID != nil {
		return *caller.PatientID
	}
	if careRequest != nil {
		return careRequest.PatientID
	}
	return u.guestPatientID
}

func (u *bookingUsecase) GetBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !caller.IsPatient(booking.PatientID) && !caller.IsProvider(booking.ProviderID) && caller.RoleID != entity.RoleIDAdmin {
		return nil, ErrForbidden
	}

	return converter.BookingToResponse(booking), nil
}

// ListBookings returns the caller's bookings as a patient, or as a provider
// when asProvider is set
func (u *bookingUsecase) ListBookings(ctx context.Context, caller entity.CallerIdentity, asProvider bool) (*dto.BookingListResponse, error) {
	var (
		bookings []entity.Booking
		err      error
	)

	switch {
	case asProvider && caller.ProviderID != nil:
		bookings, err = u.bookingRepo.FindByProviderID(ctx, u.db, *caller.ProviderID)
	case !asProvider && caller.PatientID != nil:
		bookings, err = u.bookingRepo.FindByPatientID(ctx, u.db, *caller.PatientID)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		u.log.Warnf("Failed to list bookings: %+v", err)
		return nil, storeError("list bookings", err)
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

// UpdateBooking applies either a status transition or an intake edit.
//
// Status changes are conditional writes on the status read, so two concurrent
// transitions cannot both succeed. The care request mirror event is written in
// the same transaction and applied after commit; a failed mirror is left to the
// outbox deliverer and never fails the update.
func (u *bookingUsecase) UpdateBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	booking, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	isPatient := caller.IsPatient(booking.PatientID)
	isProvider := caller.IsProvider(booking.ProviderID)
	if !isPatient && !isProvider {
		return nil, ErrForbidden
	}

	hasIntake := req.PatientName != nil || req.PatientPhone != nil || req.AddressNotes != nil || req.Consent != nil
	if req.Status != nil && hasIntake {
		return nil, ErrInvalidUpdate
	}

	if req.Status != nil {
		return u.changeStatus(ctx, caller, booking, entity.BookingStatus(*req.Status), req, isPatient, isProvider)
	}
	if hasIntake && isPatient {
		return u.editIntake(ctx, caller, booking, req)
	}
	if hasIntake {
		// Intake details belong to the patient; a provider's edits are ignored.
		return converter.BookingToResponse(booking), nil
	}
	return nil, ErrInvalidUpdate
}

func (u *bookingUsecase) changeStatus(ctx context.Context, caller entity.CallerIdentity, booking *entity.Booking, target entity.BookingStatus, req *dto.UpdateBookingRequest, isPatient, isProvider bool) (*dto.BookingResponse, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	prior := booking.Status
	switch target {
	case entity.BookingStatusCancelled:
		// Patients cancel pending or confirmed bookings, providers only confirmed ones.
		if !isPatient && prior == entity.BookingStatusPending {
			return nil, ErrInvalidTransition
		}
	case entity.BookingStatusConfirmed, entity.BookingStatusDeclined, entity.BookingStatusCompleted:
		if !isProvider {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrInvalidStatus
	}

	if prior.IsTerminal() {
		u.log.Debugf("Rejected %s for booking %s: already %s", target, booking.ID, prior)
		return nil, ErrInvalidTransition
	}
	if !prior.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}

	fields := map[string]interface{}{"status": target}
	if target == entity.BookingStatusDeclined {
		if req.ReferredProviderID != nil {
			if err := u.checkReferral(ctx, booking, *req.ReferredProviderID); err != nil {
				return nil, err
			}
		}
		fields["decline_reason"] = req.DeclineReason
		fields["referred_provider_id"] = req.ReferredProviderID
	}

	before := converter.BookingToResponse(booking)

	var event *entity.OutboxEvent
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := u.bookingRepo.UpdateStatusIf(ctx, tx, booking.ID, prior, fields)
		if err != nil {
			return storeError("update booking status", err)
		}
		if affected == 0 {
			return ErrBookingStatusChanged
		}

		booking.Status = target
		if target == entity.BookingStatusDeclined {
			booking.DeclineReason = req.DeclineReason
			booking.ReferredProviderID = req.ReferredProviderID
		}

		event, err = u.mirror.Enqueue(ctx, tx, booking, prior)
		if err != nil {
			return storeError("enqueue care request mirror", err)
		}

		return u.auditService.LogUpdate(ctx, tx, caller.UserID, entity.AuditActionForStatus(target),
			"booking", booking.ID.String(), before, converter.BookingToResponse(booking))
	})
	if err != nil {
		if !errors.Is(err, ErrBookingStatusChanged) {
			u.log.Warnf("Failed to update booking %s to %s: %+v", booking.ID, target, err)
		}
		return nil, err
	}

	u.metrics.ObserveTransition(string(prior), string(target))
	u.log.Infof("Booking %s: %s -> %s", booking.ID, prior, target)

	if event != nil {
		// Errors are logged and recorded on the outbox row by the mirror.
		_ = u.mirror.Apply(context.WithoutCancel(ctx), event)
	}

	return u.reload(ctx, booking), nil
}

func (u *bookingUsecase) checkReferral(ctx context.Context, booking *entity.Booking, referredID uuid.UUID) error {
	if referredID == booking.ProviderID {
		return ErrInvalidReferral
	}
	referred, err := u.providerRepo.FindByUserID(ctx, u.db, referredID)
	if err != nil {
		u.log.Warnf("Failed to find referred provider %s: %+v", referredID, err)
		return storeError("find provider", err)
	}
	if referred == nil {
		return ErrInvalidReferral
	}
	return nil
}

func (u *bookingUsecase) editIntake(ctx context.Context, caller entity.CallerIdentity, booking *entity.Booking, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	if !booking.IsPending() {
		return nil, ErrBookingNotEditable
	}

	fields := make(map[string]interface{})
	if req.PatientName != nil {
		fields["patient_name"] = req.PatientName
		booking.PatientName = req.PatientName
	}
	if req.PatientPhone != nil {
		fields["patient_phone"] = req.PatientPhone
		booking.PatientPhone = req.PatientPhone
	}
	if req.AddressNotes != nil {
		fields["address_notes"] = req.AddressNotes
		booking.AddressNotes = req.AddressNotes
	}
	if req.Consent != nil {
		fields["consent"] = req.Consent
		booking.Consent = req.Consent
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded on pending so a concurrent confirm wins over a late edit.
		affected, err := u.bookingRepo.UpdateStatusIf(ctx, tx, booking.ID, entity.BookingStatusPending, fields)
		if err != nil {
			return storeError("update booking", err)
		}
		if affected == 0 {
			return ErrBookingStatusChanged
		}
		return u.auditService.LogUpdate(ctx, tx, caller.UserID, entity.AuditActionBookingUpdate,
			"booking", booking.ID.String(), nil, fields)
	})
	if err != nil {
		if !errors.Is(err, ErrBookingStatusChanged) {
			u.log.Warnf("Failed to update booking %s: %+v", booking.ID, err)
		}
		return nil, err
	}

	return u.reload(ctx, booking), nil
}

// DeleteBooking removes a cancelled or declined booking of the calling patient.
// The linked care request is left as it is.
func (u *bookingUsecase) DeleteBooking(ctx context.Context, caller entity.CallerIdentity, bookingID uuid.UUID) error {
	booking, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if !caller.IsPatient(booking.PatientID) {
		return ErrForbidden
	}
	if !booking.IsDeletable() {
		return ErrBookingNotDeletable
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := u.bookingRepo.Delete(ctx, tx, booking.ID)
		if err != nil {
			return storeError("delete booking", err)
		}
		if affected == 0 {
			return ErrBookingNotFound
		}
		return u.auditService.LogDelete(ctx, tx, caller.UserID, entity.AuditActionBookingDelete,
			"booking", booking.ID.String(), converter.BookingToResponse(booking))
	})
	if err != nil {
		if !errors.Is(err, ErrBookingNotFound) {
			u.log.Warnf("Failed to delete booking %s: %+v", booking.ID, err)
		}
		return err
	}

	u.log.Infof("Booking deleted: id=%s", booking.ID)
	return nil
}

func (u *bookingUsecase) findBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, storeError("find booking", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// reload reads the booking back with its relations, falling back to the
// in-memory copy when the read fails
func (u *bookingUsecase) reload(ctx context.Context, booking *entity.Booking) *dto.BookingResponse {
	fresh, err := u.bookingRepo.FindByID(ctx, u.db, booking.ID)
	if err != nil || fresh == nil {
		if err != nil {
			u.log.Warnf("Failed to reload booking %s: %+v", booking.ID, err)
		}
		return converter.BookingToResponse(booking)
	}
	return converter.BookingToResponse(fresh)
}
