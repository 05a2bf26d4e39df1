package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the reservation engine.
type BookingMetrics struct {
	reservations       *prometheus.CounterVec
	reservationLatency *prometheus.HistogramVec
	lockWait           prometheus.Histogram
	transitions        *prometheus.CounterVec
	slotQueries        *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome",
		}, []string{"outcome"}),
		reservationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "reservation_duration_seconds",
			Help:      "Latency of reservation attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the professional/date lock",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by action and outcome",
		}, []string{"action", "outcome"}),
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "slot_queries_total",
			Help:      "Slot list requests by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservations, m.reservationLatency, m.lockWait, m.transitions, m.slotQueries)
	return m
}

func (m *BookingMetrics) ObserveReservation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
	m.reservationLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *BookingMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

func (m *BookingMetrics) IncTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *BookingMetrics) IncSlotQuery(status string) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(status).Inc()
}
