package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrUnknownOutboxEvent = errors.New("unknown outbox event type")

// CareRequestMirror propagates booking status changes to the linked care
// request. The booking write is authoritative: the mirror event is recorded in
// the booking transaction and applied after commit, so a mirror failure never
// undoes the booking change.
type CareRequestMirror interface {
	// Enqueue records the mirror event for a transition from prior to
	// booking.Status. It returns nil when the transition implies no change.
	Enqueue(ctx context.Context, tx *gorm.DB, booking *entity.Booking, prior entity.BookingStatus) (*entity.OutboxEvent, error)
	// Apply delivers one event. Failures are recorded on the event and
	// returned for logging; the event stays pending for redelivery. An event
	// with a newer event for the same care request is marked delivered
	// without being written, so the latest transition always wins.
	Apply(ctx context.Context, event *entity.OutboxEvent) error
}

type careRequestMirror struct {
	db              *gorm.DB
	log             *logrus.Logger
	careRequestRepo repository.CareRequestRepository
	outboxRepo      repository.OutboxRepository
	metrics         *metrics.SchedulingMetrics
}

func NewCareRequestMirror(db *gorm.DB, log *logrus.Logger, careRequestRepo repository.CareRequestRepository, outboxRepo repository.OutboxRepository, m *metrics.SchedulingMetrics) CareRequestMirror {
	return &careRequestMirror{
		db:              db,
		log:             log,
		careRequestRepo: careRequestRepo,
		outboxRepo:      outboxRepo,
		metrics:         m,
	}
}

func (s *careRequestMirror) Enqueue(ctx context.Context, tx *gorm.DB, booking *entity.Booking, prior entity.BookingStatus) (*entity.OutboxEvent, error) {
	if booking.CareRequestID == nil {
		return nil, nil
	}
	status, ok := entity.MirrorStatusFor(prior, booking.Status)
	if !ok {
		return nil, nil
	}

	payload, err := json.Marshal(entity.CareRequestStatusPayload{
		CareRequestID: *booking.CareRequestID,
		BookingID:     booking.ID,
		PriorStatus:   prior,
		BookingStatus: booking.Status,
		Status:        status,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal mirror payload: %w", err)
	}

	event := &entity.OutboxEvent{
		Type:        entity.OutboxEventCareRequestStatus,
		AggregateID: *booking.CareRequestID,
		Payload:     payload,
	}
	if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}
	return event, nil
}

func (s *careRequestMirror) Apply(ctx context.Context, event *entity.OutboxEvent) error {
	superseded, err := s.outboxRepo.HasNewer(ctx, s.db, event)
	if err != nil {
		s.metrics.ObserveMirror(metrics.MirrorResultFailed)
		s.log.Warnf("Failed to check newer mirror events for %s: %+v", event.AggregateID, err)
		return fmt.Errorf("check newer outbox events: %w", err)
	}
	if superseded {
		s.metrics.ObserveMirror(metrics.MirrorResultSuperseded)
		s.log.Infof("Skipping outbox event %s for care request %s: superseded by a newer event", event.ID, event.AggregateID)
		if err := s.outboxRepo.MarkDelivered(ctx, s.db, event.ID); err != nil {
			s.log.Warnf("Failed to mark outbox event %s delivered: %+v", event.ID, err)
		}
		return nil
	}

	if err := s.deliver(ctx, event); err != nil {
		s.metrics.ObserveMirror(metrics.MirrorResultFailed)
		s.log.Errorf("Care request mirror failed for event %s (attempt %d): %+v", event.ID, event.Attempts+1, err)
		if markErr := s.outboxRepo.MarkFailed(ctx, s.db, event.ID, err); markErr != nil {
			s.log.Warnf("Failed to record mirror failure for event %s: %+v", event.ID, markErr)
		}
		return err
	}

	s.metrics.ObserveMirror(metrics.MirrorResultApplied)
	if err := s.outboxRepo.MarkDelivered(ctx, s.db, event.ID); err != nil {
		// The status write is idempotent; a redelivery only repeats it.
		s.log.Warnf("Failed to mark outbox event %s delivered: %+v", event.ID, err)
	}
	return nil
}

func (s *careRequestMirror) deliver(ctx context.Context, event *entity.OutboxEvent) error {
	if event.Type != entity.OutboxEventCareRequestStatus {
		return fmt.Errorf("%w: %s", ErrUnknownOutboxEvent, event.Type)
	}

	var payload entity.CareRequestStatusPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode mirror payload: %w", err)
	}

	affected, err := s.careRequestRepo.UpdateStatus(ctx, s.db, payload.CareRequestID, payload.Status)
	if err != nil {
		return fmt.Errorf("update care request %s: %w", payload.CareRequestID, err)
	}
	if affected == 0 {
		s.log.Warnf("Care request %s not found while mirroring booking %s", payload.CareRequestID, payload.BookingID)
		return nil
	}

	s.log.Infof("Care request %s set to %s (booking %s %s -> %s)",
		payload.CareRequestID, payload.Status, payload.BookingID, payload.PriorStatus, payload.BookingStatus)
	return nil
}

// MirrorDeliverer redelivers outbox events the post-commit step could not apply.
type MirrorDeliverer struct {
	db         *gorm.DB
	log        *logrus.Logger
	outboxRepo repository.OutboxRepository
	mirror     CareRequestMirror
	metrics    *metrics.SchedulingMetrics
	interval   time.Duration
	batchSize  int
}

func NewMirrorDeliverer(db *gorm.DB, log *logrus.Logger, outboxRepo repository.OutboxRepository, mirror CareRequestMirror, m *metrics.SchedulingMetrics, interval time.Duration, batchSize int) *MirrorDeliverer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorDeliverer{
		db:         db,
		log:        log,
		outboxRepo: outboxRepo,
		mirror:     mirror,
		metrics:    m,
		interval:   interval,
		batchSize:  batchSize,
	}
}

// Start polls for pending events until ctx is cancelled.
func (d *MirrorDeliverer) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Infof("Mirror deliverer started (interval=%v, batch=%d)", d.interval, d.batchSize)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Mirror deliverer stopped")
			return
		case <-ticker.C:
			if _, err := d.DeliverPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.log.Warnf("Mirror delivery pass failed: %+v", err)
			}
		}
	}
}

// DeliverPending applies one batch of pending events and returns how many
// were delivered.
func (d *MirrorDeliverer) DeliverPending(ctx context.Context) (int, error) {
	events, err := d.outboxRepo.FindPending(ctx, d.db, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	d.metrics.SetOutboxBacklog(len(events))

	delivered := 0
	for i := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := d.mirror.Apply(ctx, &events[i]); err != nil {
			continue
		}
		delivered++
	}
	return delivered, nil
}
