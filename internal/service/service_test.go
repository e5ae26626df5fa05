package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/database"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// monday is a weekday; saturday falls in the same week.
var (
	monday   = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
}

func (n *recordingNotifier) Publish(_ context.Context, ev queue.ActivityEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

type harness struct {
	svc      *VenueService
	catalog  *repository.CatalogRepo
	notifier *recordingNotifier
	area     *model.Area
	sponsor  *model.Collaboration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	store := repository.NewStore(db)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	catalog := repository.NewCatalogRepo(db)
	area := &model.Area{Name: "Atrium", Kind: model.AreaKindEvent, Active: true,
		Ext: model.EventAreaExt{Capacity: 300, AreaFee: decimal.NewFromInt(50)}}
	require.NoError(t, catalog.CreateArea(ctx, area))
	sponsor := &model.Collaboration{Name: "Acme", Active: true}
	require.NoError(t, catalog.CreateCollaboration(ctx, sponsor))
	require.NoError(t, catalog.CreateFeeConfig(ctx, &model.FeeConfig{
		AreaID:            area.ID,
		HourlyRate:        decimal.NewFromInt(100),
		MinHours:          decimal.NewFromInt(1),
		OvertimeRate:      decimal.Zero,
		HolidayMultiplier: decimal.NewFromInt(2),
		WeekendMultiplier: decimal.RequireFromString("1.5"),
		EffectiveDate:     monday.AddDate(-1, 0, 0),
		Active:            true,
	}))

	notifier := &recordingNotifier{}
	cfg := config.DefaultEngineConfig()
	cfg.TxRetry.Backoff = time.Millisecond
	svc := NewVenueService(Deps{
		Store:     store,
		Resources: catalog,
		Sponsors:  catalog,
		Services:  catalog,
		Notifier:  notifier,
		Rand:      rand.New(rand.NewSource(1)),
		Config:    cfg,
	})
	return &harness{svc: svc, catalog: catalog, notifier: notifier, area: area, sponsor: sponsor}
}

func (h *harness) submitRequest(start, end time.Time) SubmitRequest {
	return SubmitRequest{
		AreaID:          h.area.ID,
		CollaborationID: h.sponsor.ID,
		Start:           start,
		End:             end,
		Purpose:         "product launch",
		Funding:         decimal.NewFromInt(500),
		Event:           EventDraft{Name: "Launch", Capacity: 100, Fee: decimal.Zero, Expense: decimal.Zero},
		OperatorID:      "op-1",
	}
}

func (h *harness) submit(t *testing.T, start, end time.Time) *Reservation {
	t.Helper()
	res, err := h.svc.SubmitReservation(context.Background(), h.submitRequest(start, end))
	require.NoError(t, err)
	return res
}

func (h *harness) decide(eventID uint64, decision model.ReservationStatus) error {
	_, err := h.svc.ApproveReservation(context.Background(), ApproveRequest{
		EventID: eventID, AreaID: h.area.ID, CollaborationID: h.sponsor.ID,
		Decision: decision, OperatorID: "reviewer",
	})
	return err
}

func (h *harness) setStatus(t *testing.T, eventID uint64, status model.ActivityStatus) {
	t.Helper()
	_, err := h.svc.UpdateEvent(context.Background(), UpdateEventRequest{EventID: eventID, Status: &status, OperatorID: "op-1"})
	require.NoError(t, err)
}

// completedEvent submits, approves and completes an event over [start, end).
func (h *harness) completedEvent(t *testing.T, start, end time.Time) uint64 {
	t.Helper()
	res := h.submit(t, start, end)
	require.NoError(t, h.decide(res.Event.ID, model.ReservationApproved))
	h.setStatus(t, res.Event.ID, model.ActivityOngoing)
	h.setStatus(t, res.Event.ID, model.ActivityCompleted)
	return res.Event.ID
}
