package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	ReservationsSubmitted prometheus.Counter
	ReservationDecisions  *prometheus.CounterVec
	Conflicts             *prometheus.CounterVec
	BillingsCreated       prometheus.Counter
	BilledAmount          prometheus.Counter
	OperationErrors       *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
}

// NewMetrics creates the venue collectors on a fresh registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ReservationsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_reservations_submitted_total",
			Help: "Total number of reservations accepted as PENDING",
		}),
		ReservationDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_reservation_decisions_total",
			Help: "Total number of approval decisions by outcome",
		}, []string{"decision"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_conflicts_total",
			Help: "Total number of scheduling conflicts by stage",
		}, []string{"stage"}),
		BillingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_billings_created_total",
			Help: "Total number of billings created",
		}),
		BilledAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_billed_amount_total",
			Help: "Sum of total fees of created billings",
		}),
		OperationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_operation_errors_total",
			Help: "Total number of failed operations by kind",
		}, []string{"op", "kind"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "venue_operation_duration_seconds",
			Help:    "Operation execution duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"op"}),
	}
}

// RecordOperation records the duration of op and, on failure, its error kind.
func (m *Metrics) RecordOperation(op string, duration time.Duration, errKind string) {
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if errKind != "" {
		m.OperationErrors.WithLabelValues(op, errKind).Inc()
	}
}

// RecordConflict records an overlap detected at stage ("submit" or "approve").
func (m *Metrics) RecordConflict(stage string) {
	m.Conflicts.WithLabelValues(stage).Inc()
}

// RecordDecision records an approval decision.
func (m *Metrics) RecordDecision(decision string) {
	m.ReservationDecisions.WithLabelValues(decision).Inc()
}

// RecordBilling records a created billing and its total.
func (m *Metrics) RecordBilling(total float64) {
	m.BillingsCreated.Inc()
	m.BilledAmount.Add(total)
}
