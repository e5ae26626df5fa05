package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeBilling(t *testing.T) {
	rule := FeeRule{
		HourlyRate:        dec("100"),
		MinHours:          dec("1"),
		HolidayMultiplier: dec("2"),
		WeekendMultiplier: dec("1.5"),
	}
	projector := model.AdditionalService{ID: 7, Name: "Projector", Fee: dec("45.5"), Unit: model.UnitFixed}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		lines    []PricedLine
		hours    string
		billable string
		base     string
		extra    string
		weekend  bool
	}{
		{"weekday", at(monday, 10, 0), at(monday, 12, 30), nil, "2.5", "2.5", "250", "0", false},
		{"saturday", at(saturday, 10, 0), at(saturday, 12, 30), nil, "2.5", "2.5", "375", "0", true},
		{"minimum hours", at(monday, 10, 0), at(monday, 10, 20), nil, "0.33", "1", "100", "0", false},
		{"rounded hours", at(monday, 10, 0), at(monday, 11, 10), nil, "1.17", "1.17", "117", "0", false},
		// 2h07m30s is exactly 2.125h; halves round away from zero, not to even.
		{"half away from zero", at(monday, 10, 0), at(monday, 12, 7).Add(30 * time.Second), nil, "2.13", "2.13", "213", "0", false},
		{"with services", at(monday, 10, 0), at(monday, 12, 0),
			[]PricedLine{{Service: projector, Quantity: dec("2")}}, "2", "2", "200", "91", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBilling(rule, tt.start, tt.end, time.UTC, tt.lines)
			assert.True(t, dec(tt.hours).Equal(got.RentalHours), "rental hours %s", got.RentalHours)
			assert.True(t, dec(tt.billable).Equal(got.BillableHours), "billable hours %s", got.BillableHours)
			assert.True(t, dec(tt.base).Equal(got.BaseFee), "base fee %s", got.BaseFee)
			assert.True(t, dec(tt.extra).Equal(got.AdditionalFee), "additional fee %s", got.AdditionalFee)
			assert.True(t, got.BaseFee.Add(got.AdditionalFee).Equal(got.TotalFee))
			assert.Equal(t, tt.weekend, got.Weekend)
			assert.Len(t, got.Lines, len(tt.lines))
		})
	}
}

func TestComputeBillingJudgesWeekendInBillingZone(t *testing.T) {
	rule := FeeRule{HourlyRate: dec("100"), MinHours: dec("1"), WeekendMultiplier: dec("2")}
	// Friday 23:30 UTC is already Saturday in UTC+8.
	start := time.Date(2026, 10, 23, 23, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.False(t, ComputeBilling(rule, start, end, time.UTC, nil).Weekend)
	assert.True(t, ComputeBilling(rule, start, end, time.FixedZone("UTC+8", 8*3600), nil).Weekend)
}

func TestCreateBillingScenarios(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	weekday := h.completedEvent(t, at(monday, 10, 0), at(monday, 13, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: weekday, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 30), OperatorID: "cashier",
	})
	require.NoError(t, err)
	assert.True(t, dec("2.5").Equal(b.RentalHours))
	assert.True(t, dec("250").Equal(b.BaseFee))
	assert.True(t, dec("250").Equal(b.TotalFee))
	assert.Equal(t, model.BillingPending, b.Status)
	assert.Equal(t, h.area.ID, b.AreaID)

	weekend := h.completedEvent(t, at(saturday, 10, 0), at(saturday, 13, 0))
	b, err = h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: weekend, ActualStart: at(saturday, 10, 0), ActualEnd: at(saturday, 12, 30),
	})
	require.NoError(t, err)
	assert.True(t, dec("375").Equal(b.BaseFee), "base fee %s", b.BaseFee)

	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: weekend, ActualStart: at(saturday, 10, 0), ActualEnd: at(saturday, 12, 30),
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreateBillingRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.submit(t, at(monday, 9, 0), at(monday, 11, 0))
	_, err := h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: res.Event.ID, ActualStart: at(monday, 9, 0), ActualEnd: at(monday, 11, 0),
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "no approved reservation yet")

	require.NoError(t, h.decide(res.Event.ID, model.ReservationApproved))
	h.setStatus(t, res.Event.ID, model.ActivityOngoing)
	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: res.Event.ID, ActualStart: at(monday, 9, 0), ActualEnd: at(monday, 11, 0),
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: res.Event.ID, ActualStart: at(monday, 11, 0), ActualEnd: at(monday, 11, 0),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: res.Event.ID, ActualStart: at(monday, 9, 0), ActualEnd: at(monday, 11, 0),
		Services: []ServiceLine{{ServiceID: 1, Quantity: decimal.Zero}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateBillingWithServices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	active := &model.AdditionalService{Name: "Sound system", Fee: dec("80"), Unit: model.UnitHourly, Active: true}
	retired := &model.AdditionalService{Name: "Fog machine", Fee: dec("500"), Unit: model.UnitFixed, Active: false}
	require.NoError(t, h.catalog.CreateService(ctx, active))
	require.NoError(t, h.catalog.CreateService(ctx, retired))

	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{
		EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0),
		Services: []ServiceLine{
			{ServiceID: active.ID, Quantity: dec("2")},
			{ServiceID: retired.ID, Quantity: dec("1")},
			{ServiceID: 999, Quantity: dec("1")},
		},
	})
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(b.BaseFee))
	assert.True(t, dec("160").Equal(b.AdditionalFee))
	assert.True(t, dec("360").Equal(b.TotalFee))

	view, err := h.svc.GetBilling(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Sound system", view.Lines[0].ServiceName)
	assert.True(t, dec("160").Equal(view.Lines[0].Subtotal))

	services, err := h.svc.GetAvailableServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, active.ID, services[0].ID)
}

func TestConcurrentCreateBillingAdmitsOne(t *testing.T) {
	h := newHarness(t)
	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.CreateBilling(context.Background(), CreateBillingRequest{
				EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0),
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)

	all, err := h.svc.GetBillings(context.Background(), nil, &id)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBillingSettlement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0)})
	require.NoError(t, err)

	_, err = h.svc.ConfirmPayment(ctx, ConfirmPaymentRequest{BillingID: b.ID})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "pending billings cannot be paid")

	_, err = h.svc.ConfirmBilling(ctx, ConfirmBillingRequest{BillingID: b.ID, PaymentMethod: "BARTER"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = h.svc.ConfirmBilling(ctx, ConfirmBillingRequest{BillingID: b.ID, PaymentMethod: model.PaymentCash,
		Invoice: &model.InvoiceInfo{CompanyName: "Acme"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	confirmed, err := h.svc.ConfirmBilling(ctx, ConfirmBillingRequest{
		BillingID: b.ID, PaymentMethod: model.PaymentBankTransfer, OperatorID: "finance",
		Invoice: &model.InvoiceInfo{CompanyName: "Acme", TaxNumber: "TX-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillingConfirmed, confirmed.Status)
	assert.Equal(t, "finance", confirmed.ConfirmedBy)
	require.NotNil(t, confirmed.ConfirmedAt)

	_, err = h.svc.VoidBilling(ctx, b.ID, "finance", "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	paidAt := at(monday, 15, 0)
	paid, err := h.svc.ConfirmPayment(ctx, ConfirmPaymentRequest{
		BillingID: b.ID, PaymentTime: paidAt, TransactionID: "TXN-42", PaymentRemarks: "wire received",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillingPaid, paid.Status)
	assert.Equal(t, "TXN-42", paid.TransactionID)
	require.NotNil(t, paid.PaymentTime)
	assert.True(t, paid.PaymentTime.Equal(paidAt))

	_, err = h.svc.ConfirmPayment(ctx, ConfirmPaymentRequest{BillingID: b.ID})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "paid billings are final")

	view, err := h.svc.GetBilling(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Invoice)
	assert.Equal(t, model.InvoiceNormal, view.Invoice.InvoiceType)
	assert.Equal(t, "wire received", view.Remarks)

	paidStatus := model.BillingPaid
	list, err := h.svc.GetBillings(ctx, &paidStatus, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	log, err := h.svc.GetEventLog(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OpConfirmPayment, log[0].Operation)
	assert.Equal(t, model.OpConfirmBilling, log[1].Operation)
	assert.Equal(t, model.OpCreateBilling, log[2].Operation)

	assert.Contains(t, h.notifier.types(), queue.BillingCreated)
	assert.Contains(t, h.notifier.types(), queue.BillingPaid)
}

func TestVoidBillingKeepsSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 12, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0)})
	require.NoError(t, err)

	voided, err := h.svc.VoidBilling(ctx, b.ID, "finance", "entered twice")
	require.NoError(t, err)
	assert.Equal(t, model.BillingCancelled, voided.Status)

	_, err = h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 12, 0)})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = h.svc.QuoteBilling(ctx, b.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	log, err := h.svc.GetEventLog(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OpCancelBilling, log[0].Operation)
}

func TestQuoteBilling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.completedEvent(t, at(monday, 10, 0), at(monday, 13, 0))
	b, err := h.svc.CreateBilling(ctx, CreateBillingRequest{EventID: id, ActualStart: at(monday, 10, 0), ActualEnd: at(monday, 13, 0)})
	require.NoError(t, err)
	require.True(t, dec("300").Equal(b.TotalFee))

	q, err := h.svc.QuoteBilling(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(q.Payable))
	assert.Empty(t, q.Discount)

	q, err = h.svc.QuoteBilling(ctx, b.ID, model.PercentDiscount{Factor: dec("0.9")})
	require.NoError(t, err)
	assert.True(t, dec("270").Equal(q.Payable))
	assert.Equal(t, model.DiscountPercent, q.Discount)

	q, err = h.svc.QuoteBilling(ctx, b.ID, model.FullReduction{Threshold: dec("500"), Amount: dec("50")})
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(q.Payable), "below threshold")

	_, err = h.svc.QuoteBilling(ctx, 999, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stored, err := h.svc.GetBilling(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(stored.TotalFee), "quotes do not change the billing")
}
