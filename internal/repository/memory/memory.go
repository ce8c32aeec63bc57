// Package memory provides map-backed repositories for tests. They ignore the
// *gorm.DB argument, so transactions opened by callers are not rolled back
// here.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	domainRepo "care-booking-marketplace/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInjected is returned by repositories configured to fail
var ErrInjected = errors.New("injected store failure")

// Store holds every table and hands out repositories sharing it.
type Store struct {
	mu sync.RWMutex

	Users        map[uuid.UUID]*entity.User
	Providers    map[uuid.UUID]*entity.ProviderProfile
	Patients     map[uuid.UUID]*entity.PatientProfile
	Availability map[uuid.UUID]*entity.AvailabilityEntry
	Bookings     map[uuid.UUID]*entity.Booking
	CareRequests map[uuid.UUID]*entity.CareRequest
	Outbox       map[uuid.UUID]*entity.OutboxEvent
	AuditLogs    []entity.AuditLog

	// Fail* make the matching repository return ErrInjected
	FailCareRequestUpdate bool
	FailBookingReads      bool

	seq int64
}

func NewStore() *Store {
	return &Store{
		Users:        make(map[uuid.UUID]*entity.User),
		Providers:    make(map[uuid.UUID]*entity.ProviderProfile),
		Patients:     make(map[uuid.UUID]*entity.PatientProfile),
		Availability: make(map[uuid.UUID]*entity.AvailabilityEntry),
		Bookings:     make(map[uuid.UUID]*entity.Booking),
		CareRequests: make(map[uuid.UUID]*entity.CareRequest),
		Outbox:       make(map[uuid.UUID]*entity.OutboxEvent),
	}
}

func (s *Store) now() time.Time {
	s.seq++
	return time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Millisecond)
}

// SetFailCareRequestUpdate toggles care request update failures under the store lock.
func (s *Store) SetFailCareRequestUpdate(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailCareRequestUpdate = fail
}

// CareRequest returns a copy of the stored care request
func (s *Store) CareRequest(id uuid.UUID) (entity.CareRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.CareRequests[id]
	if !ok {
		return entity.CareRequest{}, false
	}
	return *c, true
}

// Booking returns a copy of the stored booking
func (s *Store) Booking(id uuid.UUID) (entity.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.Bookings[id]
	if !ok {
		return entity.Booking{}, false
	}
	return *b, true
}

// CountBookings returns how many bookings a provider holds in the given statuses
func (s *Store) CountBookings(providerID uuid.UUID, statuses ...entity.BookingStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.Bookings {
		if b.ProviderID != providerID {
			continue
		}
		for _, st := range statuses {
			if b.Status == st {
				n++
				break
			}
		}
	}
	return n
}

// PendingOutbox returns undelivered events oldest first
func (s *Store) PendingOutbox() []entity.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingOutboxLocked(0)
}

func (s *Store) pendingOutboxLocked(limit int) []entity.OutboxEvent {
	var events []entity.OutboxEvent
	for _, e := range s.Outbox {
		if e.DeliveredAt == nil {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

// Repository constructors

func (s *Store) UserRepository() domainRepo.UserRepository                { return &userRepo{s} }
func (s *Store) ProviderRepository() domainRepo.ProviderProfileRepository { return &providerRepo{s} }
func (s *Store) PatientRepository() domainRepo.PatientProfileRepository   { return &patientRepo{s} }
func (s *Store) AvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepo{s}
}
func (s *Store) BookingRepository() domainRepo.BookingRepository         { return &bookingRepo{s} }
func (s *Store) CareRequestRepository() domainRepo.CareRequestRepository { return &careRequestRepo{s} }
func (s *Store) OutboxRepository() domainRepo.OutboxRepository           { return &outboxRepo{s} }
func (s *Store) AuditLogRepository() domainRepo.AuditLogRepository       { return &auditRepo{s} }

// Users

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, _ *gorm.DB, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.Users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.s.now()
	cp := *user
	r.s.Users[user.ID] = &cp
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, _ *gorm.DB, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// Provider profiles

type providerRepo struct{ s *Store }

func (r *providerRepo) Create(_ context.Context, _ *gorm.DB, profile *entity.ProviderProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *profile
	r.s.Providers[profile.UserID] = &cp
	return nil
}

func (r *providerRepo) FindByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.Providers[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	if u, ok := r.s.Users[userID]; ok {
		cp.User = *u
	}
	return &cp, nil
}

func (r *providerRepo) FindActiveByService(_ context.Context, _ *gorm.DB, service string) ([]entity.ProviderProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []entity.ProviderProfile
	for _, p := range r.s.Providers {
		if u, ok := r.s.Users[p.UserID]; ok && u.IsActive != nil && !*u.IsActive {
			continue
		}
		if p.Offers(service) {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID.String() < result[j].UserID.String() })
	return result, nil
}

func (r *providerRepo) Update(_ context.Context, _ *gorm.DB, profile *entity.ProviderProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *profile
	r.s.Providers[profile.UserID] = &cp
	return nil
}

// Patient profiles

type patientRepo struct{ s *Store }

func (r *patientRepo) Create(_ context.Context, _ *gorm.DB, profile *entity.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *profile
	r.s.Patients[profile.UserID] = &cp
	return nil
}

func (r *patientRepo) FindByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.Patients[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *patientRepo) Update(_ context.Context, _ *gorm.DB, profile *entity.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *profile
	r.s.Patients[profile.UserID] = &cp
	return nil
}

// Availability entries

type availabilityRepo struct{ s *Store }

func (r *availabilityRepo) Create(_ context.Context, _ *gorm.DB, entry *entity.AvailabilityEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = r.s.now()
	cp := *entry
	r.s.Availability[entry.ID] = &cp
	return nil
}

func (r *availabilityRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.AvailabilityEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.Availability[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *availabilityRepo) find(match func(*entity.AvailabilityEntry) bool) []entity.AvailabilityEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []entity.AvailabilityEntry
	for _, e := range r.s.Availability {
		if match(e) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (r *availabilityRepo) FindByProviderID(_ context.Context, _ *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error) {
	return r.find(func(e *entity.AvailabilityEntry) bool { return e.ProviderID == providerID }), nil
}

func (r *availabilityRepo) FindRecurring(_ context.Context, _ *gorm.DB, providerID uuid.UUID) ([]entity.AvailabilityEntry, error) {
	return r.find(func(e *entity.AvailabilityEntry) bool {
		return e.ProviderID == providerID && e.IsRecurring()
	}), nil
}

func (r *availabilityRepo) FindOneTimeInRange(_ context.Context, _ *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.AvailabilityEntry, error) {
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	return r.find(func(e *entity.AvailabilityEntry) bool {
		key := e.DateKey()
		return e.ProviderID == providerID && !e.IsRecurring() && key >= lo && key <= hi
	}), nil
}

func (r *availabilityRepo) Delete(_ context.Context, _ *gorm.DB, providerID, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.Availability[id]
	if !ok || e.ProviderID != providerID {
		return 0, nil
	}
	delete(r.s.Availability, id)
	return 1, nil
}

// Bookings

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(_ context.Context, _ *gorm.DB, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.DurationMinutes == 0 {
		booking.DurationMinutes = entity.DefaultBookingDuration
	}
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	r.s.Bookings[booking.ID] = &cp
	return nil
}

func (r *bookingRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.FailBookingReads {
		return nil, ErrInjected
	}
	b, ok := r.s.Bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *bookingRepo) find(match func(*entity.Booking) bool) ([]entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.FailBookingReads {
		return nil, ErrInjected
	}
	var result []entity.Booking
	for _, b := range r.s.Bookings {
		if match(b) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (r *bookingRepo) FindByPatientID(_ context.Context, _ *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error) {
	return r.find(func(b *entity.Booking) bool { return b.PatientID == patientID })
}

func (r *bookingRepo) FindByProviderID(_ context.Context, _ *gorm.DB, providerID uuid.UUID) ([]entity.Booking, error) {
	return r.find(func(b *entity.Booking) bool { return b.ProviderID == providerID })
}

func (r *bookingRepo) FindActiveInWindow(_ context.Context, _ *gorm.DB, providerID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	return r.find(func(b *entity.Booking) bool {
		if b.ProviderID != providerID {
			return false
		}
		if b.Status != entity.BookingStatusPending && b.Status != entity.BookingStatusConfirmed {
			return false
		}
		return !b.ScheduledAt.Before(from) && b.ScheduledAt.Before(to)
	})
}

func (r *bookingRepo) UpdateStatusIf(_ context.Context, _ *gorm.DB, id uuid.UUID, expected entity.BookingStatus, fields map[string]interface{}) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.Bookings[id]
	if !ok || b.Status != expected {
		return 0, nil
	}
	applyBookingFields(b, fields)
	b.UpdatedAt = r.s.now()
	return 1, nil
}

func (r *bookingRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Bookings[id]; !ok {
		return 0, nil
	}
	delete(r.s.Bookings, id)
	return 1, nil
}

func (r *bookingRepo) LockProvider(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func applyBookingFields(b *entity.Booking, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			b.Status = v.(entity.BookingStatus)
		case "decline_reason":
			b.DeclineReason = v.(*string)
		case "referred_provider_id":
			b.ReferredProviderID = v.(*uuid.UUID)
		case "patient_name":
			b.PatientName = v.(*string)
		case "patient_phone":
			b.PatientPhone = v.(*string)
		case "address_notes":
			b.AddressNotes = v.(*string)
		case "consent":
			b.Consent = v.(*bool)
		}
	}
}

// Care requests

type careRequestRepo struct{ s *Store }

func (r *careRequestRepo) Create(_ context.Context, _ *gorm.DB, request *entity.CareRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.Status == "" {
		request.Status = entity.CareRequestStatusOpen
	}
	request.CreatedAt = r.s.now()
	cp := *request
	r.s.CareRequests[request.ID] = &cp
	return nil
}

func (r *careRequestRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*entity.CareRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.CareRequests[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *careRequestRepo) FindByPatientID(_ context.Context, _ *gorm.DB, patientID uuid.UUID) ([]entity.CareRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []entity.CareRequest
	for _, c := range r.s.CareRequests {
		if c.PatientID == patientID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *careRequestRepo) FindOpenByService(_ context.Context, _ *gorm.DB, service string) ([]entity.CareRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []entity.CareRequest
	for _, c := range r.s.CareRequests {
		if c.Status == entity.CareRequestStatusOpen && c.Service == service {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedStart.Before(result[j].RequestedStart) })
	return result, nil
}

func (r *careRequestRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status entity.CareRequestStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailCareRequestUpdate {
		return 0, ErrInjected
	}
	c, ok := r.s.CareRequests[id]
	if !ok {
		return 0, nil
	}
	c.Status = status
	return 1, nil
}

// Outbox

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Create(_ context.Context, _ *gorm.DB, event *entity.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = r.s.now()
	cp := *event
	r.s.Outbox[event.ID] = &cp
	return nil
}

func (r *outboxRepo) FindPending(_ context.Context, _ *gorm.DB, limit int) ([]entity.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.pendingOutboxLocked(limit), nil
}

func (r *outboxRepo) HasNewer(_ context.Context, _ *gorm.DB, event *entity.OutboxEvent) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.Outbox {
		if e.ID != event.ID && e.AggregateID == event.AggregateID && e.Type == event.Type && e.CreatedAt.After(event.CreatedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r *outboxRepo) MarkDelivered(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.Outbox[id]; ok {
		now := r.s.now()
		e.DeliveredAt = &now
	}
	return nil
}

func (r *outboxRepo) MarkFailed(_ context.Context, _ *gorm.DB, id uuid.UUID, cause error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.Outbox[id]; ok {
		msg := cause.Error()
		e.Attempts++
		e.LastError = &msg
	}
	return nil
}

// Audit logs

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(_ context.Context, _ *gorm.DB, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = int64(len(r.s.AuditLogs) + 1)
	log.CreatedAt = r.s.now()
	r.s.AuditLogs = append(r.s.AuditLogs, *log)
	return nil
}

func (r *auditRepo) FindAll(_ context.Context, _ *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []entity.AuditLog
	for _, l := range r.s.AuditLogs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

func (r *auditRepo) FindByID(_ context.Context, _ *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.AuditLogs {
		if l.ID == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}
