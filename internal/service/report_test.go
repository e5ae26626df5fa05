package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/model"
)

func TestGenerateReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// billed event: 2h, headcount 50 of 100
	billed := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))
	hc := 50
	_, err := h.svc.UpdateEvent(ctx, UpdateEventRequest{EventID: billed, Headcount: &hc})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "completed events are frozen")
	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: billed, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0)})
	require.NoError(t, err)

	// unbilled event: 1.5h, headcount 75 of 100
	req := h.submitRequest(at(monday, 14, 0), at(monday, 15, 30))
	seventyFive := 75
	req.Event.Headcount = &seventyFive
	res, err := h.svc.SubmitReservation(ctx, req)
	require.NoError(t, err)
	require.NoError(t, h.decide(res.Event.ID, model.ReservationApproved))

	// pending reservations are ignored
	h.submit(t, at(monday, 16, 0), at(monday, 17, 0))

	rep, err := h.svc.GenerateReport(ctx, ReportRequest{
		Type: model.ReportDaily, Start: monday, End: monday.AddDate(0, 0, 1), GeneratedBy: "analyst",
	})
	require.NoError(t, err)
	assert.NotZero(t, rep.ID)
	assert.Equal(t, 2, rep.TotalEvents)
	assert.True(t, dec("3.5").Equal(rep.TotalRentalHours), "hours %s", rep.TotalRentalHours)
	assert.True(t, dec("200").Equal(rep.TotalRevenue), "revenue %s", rep.TotalRevenue)
	assert.True(t, dec("75").Equal(rep.AverageAttendance), "attendance %s", rep.AverageAttendance)
	assert.True(t, dec("75").Equal(rep.AverageOccupancyRate), "occupancy %s", rep.AverageOccupancyRate)
	assert.Equal(t, model.ReportCompleted, rep.Status)
	assert.Equal(t, "Venue event report (2026-10-19 to 2026-10-20)", rep.Title)

	reports, err := h.svc.GetReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, rep.ID, reports[0].ID)
}

func TestGenerateReportRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GenerateReport(ctx, ReportRequest{Type: "YEARLY", Start: monday, End: saturday})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.svc.GenerateReport(ctx, ReportRequest{Type: model.ReportCustom, Start: saturday, End: monday})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var ae *apperr.Error
	_, err = h.svc.GenerateReport(ctx, ReportRequest{Type: model.ReportWeekly, Start: monday, End: saturday})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "no_data", ae.Code)

	other := h.area.ID + 1
	h.completedEvent(t, at(monday, 10, 0), at(monday, 11, 0))
	_, err = h.svc.GenerateReport(ctx, ReportRequest{Type: model.ReportWeekly, Start: monday, End: saturday, AreaID: &other})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "area filter applies")
}

func TestGenerateReportSkipsVoidedBillings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0)})
	require.NoError(t, err)
	_, err = h.svc.VoidBilling(ctx, b.ID, "finance", "issued in error")
	require.NoError(t, err)

	rep, err := h.svc.GenerateReport(ctx, ReportRequest{Type: model.ReportDaily, Start: monday, End: monday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalEvents)
	assert.True(t, rep.TotalRevenue.IsZero(), "revenue %s", rep.TotalRevenue)
	assert.True(t, dec("2").Equal(rep.TotalRentalHours))
}
