package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// =============================================================================
// Computation
// =============================================================================

// PricedLine is an add-on service resolved against the catalog.
type PricedLine struct {
	Service  model.AdditionalService
	Quantity decimal.Decimal
}

// BillingAmounts is the outcome of ComputeBilling.
type BillingAmounts struct {
	RentalHours   decimal.Decimal              `json:"rental_hours"`
	BillableHours decimal.Decimal              `json:"billable_hours"`
	Rate          decimal.Decimal              `json:"rate"`
	Weekend       bool                         `json:"weekend"`
	BaseFee       decimal.Decimal              `json:"base_fee"`
	AdditionalFee decimal.Decimal              `json:"additional_fee"`
	TotalFee      decimal.Decimal              `json:"total_fee"`
	Lines         []model.BillingServiceDetail `json:"lines"`
}

var hour = decimal.NewFromInt(int64(time.Hour))

// ComputeBilling prices the actual usage [start, end) under rule.  Rental
// hours are rounded half away from zero to two places; the billable hours
// are at least rule.MinHours.  The weekend multiplier applies when start
// falls on Saturday or Sunday in loc.  The holiday multiplier is not
// applied.  Money amounts are rounded to two places, and TotalFee is always
// exactly BaseFee + AdditionalFee.
func ComputeBilling(rule FeeRule, start, end time.Time, loc *time.Location, lines []PricedLine) BillingAmounts {
	if loc == nil {
		loc = time.UTC
	}
	var out BillingAmounts
	out.RentalHours = decimal.NewFromInt(int64(end.Sub(start))).Div(hour).Round(2)
	out.BillableHours = decimal.Max(out.RentalHours, rule.MinHours)

	out.Rate = rule.HourlyRate
	switch start.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		out.Weekend = true
		out.Rate = out.Rate.Mul(rule.WeekendMultiplier)
	}
	out.BaseFee = out.BillableHours.Mul(out.Rate).Round(2)

	out.AdditionalFee = decimal.Zero
	out.Lines = make([]model.BillingServiceDetail, 0, len(lines))
	for _, l := range lines {
		subtotal := l.Service.Fee.Mul(l.Quantity).Round(2)
		out.Lines = append(out.Lines, model.BillingServiceDetail{
			ServiceID: l.Service.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.Service.Fee,
			Subtotal:  subtotal,
		})
		out.AdditionalFee = out.AdditionalFee.Add(subtotal)
	}
	out.TotalFee = out.BaseFee.Add(out.AdditionalFee)
	return out
}

// =============================================================================
// Creation
// =============================================================================

// ServiceLine requests an add-on service on a billing.
type ServiceLine struct {
	ServiceID uint64          `json:"service_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateBillingRequest bills the actual usage of a completed event.
type CreateBillingRequest struct {
	EventID     uint64        `json:"event_id"`
	ActualStart time.Time     `json:"actual_start_time"`
	ActualEnd   time.Time     `json:"actual_end_time"`
	Services    []ServiceLine `json:"additional_services"`
	Remarks     string        `json:"remarks"`
	OperatorID  string        `json:"-"`
}

// CreateBilling prices and persists the billing of a COMPLETED event with
// an APPROVED reservation.  Unknown or inactive add-on services are
// skipped.  The UNIQUE event_id column guards against a concurrent second
// billing.
func (s *VenueService) CreateBilling(ctx context.Context, req CreateBillingRequest) (out *model.Billing, err error) {
	defer s.finish("create_billing", time.Now(), &err)
	if !req.ActualEnd.After(req.ActualStart) {
		return nil, apperr.Validation("invalid_window", "actual_end_time must be after actual_start_time")
	}
	for _, l := range req.Services {
		if !l.Quantity.IsPositive() {
			return nil, apperr.Validation("invalid_quantity", fmt.Sprintf("quantity of service %d must be positive", l.ServiceID))
		}
	}

	details, err := s.reservations.ListByEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	detail, err := approvedDetail(details)
	if err != nil {
		return nil, apperr.NotFound("approved reservation for event", req.EventID)
	}
	rule, err := s.ResolveFee(ctx, detail.AreaID, req.ActualStart)
	if err != nil {
		return nil, err
	}
	lines, err := s.priceLines(ctx, req.Services)
	if err != nil {
		return nil, err
	}
	amounts := ComputeBilling(rule, req.ActualStart, req.ActualEnd, s.cfg.BillingLocation, lines)

	var b model.Billing
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		ev, err := s.events.GetByIDTx(ctx, tx, req.EventID)
		if err != nil {
			return notFoundOr(err, "event", req.EventID)
		}
		if ev.Status != model.ActivityCompleted {
			return apperr.InvalidState("event", string(ev.Status), "create billing")
		}
		key := repository.DetailKey{EventID: detail.EventID, AreaID: detail.AreaID, CollaborationID: detail.CollaborationID}
		current, err := s.reservations.GetTx(ctx, tx, key)
		if err != nil {
			return notFoundOr(err, "reservation", req.EventID)
		}
		if current.Status != model.ReservationApproved {
			return apperr.InvalidState("reservation", string(current.Status), "create billing")
		}
		if _, err := s.billings.GetByEventTx(ctx, tx, req.EventID); err == nil {
			return apperr.Conflict("billing_exists", fmt.Sprintf("event %d already has a billing", req.EventID))
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := s.clock()
		b = model.Billing{
			EventID:         req.EventID,
			AreaID:          detail.AreaID,
			CollaborationID: detail.CollaborationID,
			ActualStart:     req.ActualStart.UTC(),
			ActualEnd:       req.ActualEnd.UTC(),
			RentalHours:     amounts.RentalHours,
			BaseFee:         amounts.BaseFee,
			AdditionalFee:   amounts.AdditionalFee,
			TotalFee:        amounts.TotalFee,
			Status:          model.BillingPending,
			Remarks:         req.Remarks,
			CreatedBy:       req.OperatorID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.billings.CreateTx(ctx, tx, &b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict("billing_exists", fmt.Sprintf("event %d already has a billing", req.EventID))
			}
			return err
		}
		billingLines := make([]model.BillingServiceDetail, len(amounts.Lines))
		for i, l := range amounts.Lines {
			l.BillingID = b.ID
			billingLines[i] = l
		}
		if err := s.billings.CreateLinesTx(ctx, tx, billingLines); err != nil {
			return err
		}
		return s.logTx(ctx, tx, req.EventID, model.OpCreateBilling, nil,
			map[string]any{"billing_id": b.ID, "total_fee": b.TotalFee, "fee_config_id": rule.ConfigID, "weekend": amounts.Weekend},
			"billing created", req.OperatorID)
	})
	if err != nil {
		return nil, err
	}

	total, _ := b.TotalFee.Float64()
	s.metrics.RecordBilling(total)
	s.log.WithOperation("create_billing").WithEventID(req.EventID).Info().
		Uint64("billing_id", b.ID).Str("total_fee", b.TotalFee.String()).Msg("billing created")
	s.notify(ctx, queue.ActivityEvent{
		Type:       queue.BillingCreated,
		EventID:    b.EventID,
		AreaID:     b.AreaID,
		BillingID:  b.ID,
		Status:     string(b.Status),
		Amount:     b.TotalFee.String(),
		OperatorID: req.OperatorID,
	})
	return &b, nil
}

// priceLines resolves requested services, silently dropping unknown or
// inactive ids.
func (s *VenueService) priceLines(ctx context.Context, lines []ServiceLine) ([]PricedLine, error) {
	out := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		svc, err := s.services.GetActiveService(ctx, l.ServiceID)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			s.log.Debug().Uint64("service_id", l.ServiceID).Msg("skipping unknown or inactive service")
			continue
		}
		out = append(out, PricedLine{Service: *svc, Quantity: l.Quantity})
	}
	return out, nil
}

// =============================================================================
// Settlement
// =============================================================================

// ConfirmBillingRequest confirms a PENDING billing.
type ConfirmBillingRequest struct {
	BillingID     uint64             `json:"-"`
	PaymentMethod string             `json:"payment_method"`
	Invoice       *model.InvoiceInfo `json:"invoice_info,omitempty"`
	Remarks       string             `json:"remarks,omitempty"`
	OperatorID    string             `json:"-"`
}

// ConfirmBilling moves a PENDING billing to CONFIRMED, recording the
// payment method, the confirmer and optional invoice details.
func (s *VenueService) ConfirmBilling(ctx context.Context, req ConfirmBillingRequest) (out *model.Billing, err error) {
	defer s.finish("confirm_billing", time.Now(), &err)
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperr.Validation("invalid_payment_method", fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
	}
	var invoice string
	if req.Invoice != nil {
		inv := *req.Invoice
		if strings.TrimSpace(inv.CompanyName) == "" || strings.TrimSpace(inv.TaxNumber) == "" {
			return nil, apperr.Validation("invalid_invoice", "company_name and tax_number are required")
		}
		if inv.InvoiceType == "" {
			inv.InvoiceType = model.InvoiceNormal
		}
		if inv.InvoiceType != model.InvoiceNormal && inv.InvoiceType != model.InvoiceSpecial {
			return nil, apperr.Validation("invalid_invoice", fmt.Sprintf("unknown invoice type %q", inv.InvoiceType))
		}
		raw, err := json.Marshal(inv)
		if err != nil {
			return nil, err
		}
		invoice = string(raw)
	}

	return s.settle(ctx, req.BillingID, model.BillingConfirmed, "confirm", model.OpConfirmBilling, req.OperatorID,
		func(b *model.Billing, now time.Time) string {
			b.PaymentMethod = req.PaymentMethod
			b.ConfirmedAt = &now
			b.ConfirmedBy = req.OperatorID
			if invoice != "" {
				b.InvoiceInfo = invoice
			}
			if req.Remarks != "" {
				b.Remarks = req.Remarks
			}
			return "billing confirmed, payment method " + req.PaymentMethod
		})
}

// ConfirmPaymentRequest records payment of a CONFIRMED billing.
type ConfirmPaymentRequest struct {
	BillingID      uint64    `json:"-"`
	PaymentTime    time.Time `json:"payment_time"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	PaymentRemarks string    `json:"payment_remarks,omitempty"`
	OperatorID     string    `json:"-"`
}

// ConfirmPayment moves a CONFIRMED billing to PAID.  PAID billings are
// never modified again.  A zero PaymentTime means now.
func (s *VenueService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (out *model.Billing, err error) {
	defer s.finish("confirm_payment", time.Now(), &err)
	out, err = s.settle(ctx, req.BillingID, model.BillingPaid, "confirm payment", model.OpConfirmPayment, req.OperatorID,
		func(b *model.Billing, now time.Time) string {
			paid := now
			if !req.PaymentTime.IsZero() {
				paid = req.PaymentTime.UTC()
			}
			b.PaymentTime = &paid
			if req.TransactionID != "" {
				b.TransactionID = req.TransactionID
			}
			b.Remarks = appendRemark(b.Remarks, req.PaymentRemarks)
			return "payment confirmed"
		})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, queue.ActivityEvent{
		Type:       queue.BillingPaid,
		EventID:    out.EventID,
		AreaID:     out.AreaID,
		BillingID:  out.ID,
		Status:     string(out.Status),
		Amount:     out.TotalFee.String(),
		OperatorID: req.OperatorID,
	})
	return out, nil
}

// VoidBilling cancels a PENDING billing.  The event keeps its single
// billing slot, so a voided billing cannot be replaced.
func (s *VenueService) VoidBilling(ctx context.Context, billingID uint64, operatorID, reason string) (out *model.Billing, err error) {
	defer s.finish("void_billing", time.Now(), &err)
	return s.settle(ctx, billingID, model.BillingCancelled, "void", model.OpCancelBilling, operatorID,
		func(b *model.Billing, _ time.Time) string {
			b.Remarks = appendRemark(b.Remarks, reason)
			if reason != "" {
				return "billing voided: " + reason
			}
			return "billing voided"
		})
}

// settle applies one billing status transition and its field changes.
func (s *VenueService) settle(ctx context.Context, billingID uint64, to model.BillingStatus, verb string, op model.Operation,
	operatorID string, apply func(b *model.Billing, now time.Time) string) (*model.Billing, error) {
	var after model.Billing
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.billings.GetByIDTx(ctx, tx, billingID)
		if err != nil {
			return notFoundOr(err, "billing", billingID)
		}
		if !before.Status.CanTransitionTo(to) {
			return apperr.InvalidState("billing", string(before.Status), verb)
		}
		now := s.clock()
		after = *before
		after.Status = to
		after.UpdatedAt = now
		desc := apply(&after, now)
		if err := s.billings.UpdateTx(ctx, tx, &after); err != nil {
			return err
		}
		return s.logTx(ctx, tx, after.EventID, op, before, after, desc, operatorID)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithOperation(string(op)).WithEventID(after.EventID).Info().
		Uint64("billing_id", after.ID).Str("status", string(after.Status)).Msg("billing updated")
	return &after, nil
}

func appendRemark(existing, extra string) string {
	if extra == "" {
		return existing
	}
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}

// =============================================================================
// Queries
// =============================================================================

// GetBillings lists billings, optionally filtered, newest first.
func (s *VenueService) GetBillings(ctx context.Context, status *model.BillingStatus, eventID *uint64) (out []model.Billing, err error) {
	defer s.finish("get_billings", time.Now(), &err)
	if status != nil && !status.Valid() {
		return nil, apperr.Validation("invalid_status", fmt.Sprintf("unknown billing status %q", *status))
	}
	out, err = s.billings.List(ctx, status, eventID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Billing{}
	}
	return out, nil
}

// BillingView is a billing with its decoded invoice and add-on lines.
type BillingView struct {
	model.Billing
	Invoice *model.InvoiceInfo       `json:"invoice_info,omitempty"`
	Lines   []repository.BillingLine `json:"service_details"`
}

// GetBilling returns one billing with its lines.
func (s *VenueService) GetBilling(ctx context.Context, billingID uint64) (out *BillingView, err error) {
	defer s.finish("get_billing", time.Now(), &err)
	b, err := s.billings.GetByID(ctx, billingID)
	if err != nil {
		return nil, notFoundOr(err, "billing", billingID)
	}
	lines, err := s.billings.ListLines(ctx, billingID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []repository.BillingLine{}
	}
	out = &BillingView{Billing: *b, Lines: lines}
	if b.InvoiceInfo != "" {
		var inv model.InvoiceInfo
		if err := json.Unmarshal([]byte(b.InvoiceInfo), &inv); err != nil {
			return nil, err
		}
		out.Invoice = &inv
	}
	return out, nil
}

// Quote is the amount payable on a billing after an optional discount.
type Quote struct {
	BillingID uint64          `json:"billing_id"`
	Total     decimal.Decimal `json:"total_fee"`
	Discount  string          `json:"discount,omitempty"`
	Payable   decimal.Decimal `json:"payable"`
}

// QuoteBilling applies d to the total of a billing without changing it.
// A nil discount quotes the total as is.
func (s *VenueService) QuoteBilling(ctx context.Context, billingID uint64, d model.Discount) (out *Quote, err error) {
	defer s.finish("quote_billing", time.Now(), &err)
	b, err := s.billings.GetByID(ctx, billingID)
	if err != nil {
		return nil, notFoundOr(err, "billing", billingID)
	}
	if b.Status == model.BillingCancelled {
		return nil, apperr.InvalidState("billing", string(b.Status), "quote")
	}
	out = &Quote{BillingID: b.ID, Total: b.TotalFee, Payable: b.TotalFee}
	if d != nil {
		out.Discount = d.Tag()
		out.Payable = d.Apply(b.TotalFee)
	}
	return out, nil
}

// GetAvailableServices lists the active add-on services by name.
func (s *VenueService) GetAvailableServices(ctx context.Context) (out []model.AdditionalService, err error) {
	defer s.finish("get_services", time.Now(), &err)
	out, err = s.services.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.AdditionalService{}
	}
	return out, nil
}
