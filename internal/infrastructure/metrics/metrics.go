package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcome labels
const (
	OutcomeCreated         = "created"
	OutcomeConflict        = "conflict"
	OutcomeInvalid         = "invalid"
	OutcomeError           = "error"
	OutcomeLockTimeout     = "lock_timeout"
	MirrorResultApplied    = "applied"
	MirrorResultFailed     = "failed"
	MirrorResultSuperseded = "superseded"
)

// SchedulingMetrics exposes counters/histograms for the booking engine.
type SchedulingMetrics struct {
	bookingsTotal *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	mirrorTotal   *prometheus.CounterVec
	slotLatency   prometheus.Histogram
	lockWait      prometheus.Histogram
	outboxBacklog prometheus.Gauge
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebooking",
			Subsystem: "bookings",
			Name:      "create_total",
			Help:      "Booking creation attempts by outcome",
		}, []string{"outcome", "reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebooking",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Booking status transitions",
		}, []string{"from", "to"}),
		mirrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebooking",
			Subsystem: "care_requests",
			Name:      "mirror_total",
			Help:      "Care request status mirror deliveries by result",
		}, []string{"result"}),
		slotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carebooking",
			Subsystem: "slots",
			Name:      "compute_seconds",
			Help:      "Latency of slot computation including store reads",
			Buckets:   prometheus.DefBuckets,
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carebooking",
			Subsystem: "bookings",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-provider booking lock",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		outboxBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carebooking",
			Subsystem: "outbox",
			Name:      "pending_events",
			Help:      "Undelivered outbox events seen by the last delivery pass",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitions, m.mirrorTotal, m.slotLatency, m.lockWait, m.outboxBacklog)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome, reason string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *SchedulingMetrics) ObserveMirror(result string) {
	if m == nil {
		return
	}
	m.mirrorTotal.WithLabelValues(result).Inc()
}

func (m *SchedulingMetrics) ObserveSlotLatency(seconds float64) {
	if m == nil {
		return
	}
	m.slotLatency.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.lockWait.Observe(seconds)
}

func (m *SchedulingMetrics) SetOutboxBacklog(n int) {
	if m == nil {
		return
	}
	m.outboxBacklog.Set(float64(n))
}
