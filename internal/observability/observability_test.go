package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "debug").
		WithRequestID("req-1").
		WithOperation("submit").
		WithEventID(42).
		WithError(errors.New("boom"))
	l.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line[RequestIDKey])
	assert.Equal(t, "submit", line["op"])
	assert.Equal(t, float64(42), line["event_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "hello", line["message"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "warn")
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() { l.WithEventID(1).Error().Msg("ignored") })
}

func counterValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.ReservationsSubmitted.Inc()
	m.RecordDecision("APPROVED")
	m.RecordDecision("REJECTED")
	m.RecordConflict("approve")
	m.RecordBilling(250.5)
	m.RecordOperation("create_billing", 10*time.Millisecond, "conflict")
	m.RecordOperation("create_billing", 5*time.Millisecond, "")

	assert.Equal(t, float64(1), counterValue(t, m, "venue_reservations_submitted_total"))
	assert.Equal(t, float64(2), counterValue(t, m, "venue_reservation_decisions_total"))
	assert.Equal(t, float64(1), counterValue(t, m, "venue_conflicts_total"))
	assert.Equal(t, float64(1), counterValue(t, m, "venue_billings_created_total"))
	assert.Equal(t, 250.5, counterValue(t, m, "venue_billed_amount_total"))
	assert.Equal(t, float64(1), counterValue(t, m, "venue_operation_errors_total"))

	// A second instance must not collide with the first.
	assert.NotPanics(t, func() { NewMetrics() })
}
