package service

import (
	"context"
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

// EventDraft describes the event created together with a reservation.
// Start and End default to the rental window and must lie within it.
type EventDraft struct {
	Name        string          `json:"event_name"`
	Start       *time.Time      `json:"event_start,omitempty"`
	End         *time.Time      `json:"event_end,omitempty"`
	Capacity    int             `json:"capacity"`
	Headcount   *int            `json:"headcount,omitempty"`
	Fee         decimal.Decimal `json:"fee"`
	Expense     decimal.Decimal `json:"expense"`
	Description string          `json:"description"`
}

// SubmitRequest asks for one area, on behalf of one sponsor, over the
// half-open window [Start, End).
type SubmitRequest struct {
	AreaID          uint64          `json:"area_id"`
	CollaborationID uint64          `json:"collaboration_id"`
	Start           time.Time       `json:"rent_start"`
	End             time.Time       `json:"rent_end"`
	Purpose         string          `json:"purpose"`
	Funding         decimal.Decimal `json:"funding"`
	Event           EventDraft      `json:"event"`
	OperatorID      string          `json:"-"`
}

// Reservation is an event together with one of its details.
type Reservation struct {
	Event  model.Event             `json:"event"`
	Detail model.ReservationDetail `json:"detail"`
}

// eventWindow is the scheduled event time, defaulting to the rental window.
func (r SubmitRequest) eventWindow() model.Window {
	w := model.Window{Start: r.Start, End: r.End}
	if r.Event.Start != nil {
		w.Start = *r.Event.Start
	}
	if r.Event.End != nil {
		w.End = *r.Event.End
	}
	return w
}

func (r SubmitRequest) validate() error {
	if (model.Window{Start: r.Start, End: r.End}).Empty() {
		return apperr.Validation("invalid_window", "rent_end must be after rent_start")
	}
	if r.AreaID == 0 || r.CollaborationID == 0 {
		return apperr.Validation("missing_reference", "area_id and collaboration_id are required")
	}
	if strings.TrimSpace(r.Event.Name) == "" {
		return apperr.Validation("missing_name", "event_name is required")
	}
	ew := r.eventWindow()
	if ew.Empty() {
		return apperr.Validation("invalid_event_window", "event_end must be after event_start")
	}
	if ew.Start.Before(r.Start) || ew.End.After(r.End) {
		return apperr.Validation("event_outside_rental", "the event must take place within the rental window")
	}
	if r.Event.Capacity <= 0 {
		return apperr.Validation("invalid_capacity", "capacity must be positive")
	}
	if r.Event.Headcount != nil {
		if *r.Event.Headcount < 0 {
			return apperr.Validation("invalid_headcount", "headcount must not be negative")
		}
		if *r.Event.Headcount > r.Event.Capacity {
			return apperr.Capacity(*r.Event.Headcount, r.Event.Capacity)
		}
	}
	if r.Funding.IsNegative() || r.Event.Fee.IsNegative() || r.Event.Expense.IsNegative() {
		return apperr.Validation("negative_amount", "funding, fee and expense must not be negative")
	}
	return nil
}

// SubmitReservation validates references, rejects windows that already
// overlap an APPROVED reservation of the area, and persists a PREPARING
// event with a PENDING detail.  The overlap check here is an early
// rejection only; approval checks again.
func (s *VenueService) SubmitReservation(ctx context.Context, req SubmitRequest) (res *Reservation, err error) {
	defer s.finish("submit_reservation", time.Now(), &err)
	if err = req.validate(); err != nil {
		return nil, err
	}
	if err = s.checkReferences(ctx, req.AreaID, req.CollaborationID, req.Event.Capacity); err != nil {
		return nil, err
	}

	now := s.clock()
	ew := req.eventWindow()
	ev := model.Event{
		Name:        strings.TrimSpace(req.Event.Name),
		StartTime:   ew.Start.UTC(),
		EndTime:     ew.End.UTC(),
		Capacity:    req.Event.Capacity,
		Headcount:   req.Event.Headcount,
		Fee:         req.Event.Fee,
		Expense:     req.Event.Expense,
		Status:      model.ActivityPreparing,
		Description: req.Event.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	detail := model.ReservationDetail{
		AreaID:          req.AreaID,
		CollaborationID: req.CollaborationID,
		RentStart:       req.Start.UTC(),
		RentEnd:         req.End.UTC(),
		Status:          model.ReservationPending,
		Funding:         req.Funding,
		Purpose:         req.Purpose,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkConflictTx(ctx, tx, "submit", detail.AreaID, detail.RentStart, detail.RentEnd, 0); err != nil {
			return err
		}
		if err := s.events.CreateTx(ctx, tx, &ev); err != nil {
			return err
		}
		detail.EventID = ev.ID
		if err := s.reservations.CreateTx(ctx, tx, &detail); err != nil {
			return err
		}
		return s.logTx(ctx, tx, ev.ID, model.OpCreate, nil, Reservation{Event: ev, Detail: detail},
			fmt.Sprintf("reservation submitted for area %d", detail.AreaID), req.OperatorID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReservationsSubmitted.Inc()
	s.log.WithOperation("submit_reservation").WithEventID(ev.ID).Info().
		Uint64("area_id", detail.AreaID).Time("rent_start", detail.RentStart).Time("rent_end", detail.RentEnd).
		Msg("reservation submitted")
	return &Reservation{Event: ev, Detail: detail}, nil
}

func (s *VenueService) checkReferences(ctx context.Context, areaID, sponsorID uint64, capacity int) error {
	ok, err := s.resources.ResourceExists(ctx, areaID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("unknown_area", fmt.Sprintf("area %d does not exist or cannot host events", areaID))
	}
	ok, err = s.sponsors.SponsorExists(ctx, sponsorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("unknown_sponsor", fmt.Sprintf("collaboration %d does not exist", sponsorID))
	}
	area, err := s.resources.GetArea(ctx, areaID)
	if err != nil {
		return err
	}
	if limit, declared := area.EventCapacity(); declared && capacity > limit {
		return apperr.Capacity(capacity, limit)
	}
	return nil
}

// ApproveRequest decides one PENDING detail.
type ApproveRequest struct {
	EventID         uint64                  `json:"event_id"`
	AreaID          uint64                  `json:"area_id"`
	CollaborationID uint64                  `json:"collaboration_id"`
	Decision        model.ReservationStatus `json:"status"`
	RejectReason    string                  `json:"reject_reason,omitempty"`
	OperatorID      string                  `json:"-"`
}

// ApproveReservation moves a PENDING detail to APPROVED or REJECTED.  An
// approval re-runs the overlap check, excluding the event itself, inside
// the same transaction as the status write, so two overlapping details can
// never both end up APPROVED.
func (s *VenueService) ApproveReservation(ctx context.Context, req ApproveRequest) (out *model.ReservationDetail, err error) {
	defer s.finish("approve_reservation", time.Now(), &err)
	if req.Decision != model.ReservationApproved && req.Decision != model.ReservationRejected {
		return nil, apperr.Validation("invalid_decision", "status must be APPROVED or REJECTED")
	}
	key := repository.DetailKey{EventID: req.EventID, AreaID: req.AreaID, CollaborationID: req.CollaborationID}
	var after model.ReservationDetail
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.reservations.GetTx(ctx, tx, key)
		if err != nil {
			return notFoundOr(err, "reservation", fmt.Sprintf("%d/%d/%d", key.EventID, key.AreaID, key.CollaborationID))
		}
		if before.Status != model.ReservationPending {
			return apperr.InvalidState("reservation", string(before.Status), "approve")
		}
		if req.Decision == model.ReservationApproved {
			if err := s.checkConflictTx(ctx, tx, "approve", before.AreaID, before.RentStart, before.RentEnd, before.EventID); err != nil {
				return err
			}
		}
		after = *before
		after.Status = req.Decision
		after.UpdatedAt = s.clock()
		if req.Decision == model.ReservationRejected {
			after.Remarks = req.RejectReason
		}
		if err := s.reservations.UpdateStatusTx(ctx, tx, key, after.Status, after.Remarks, after.UpdatedAt); err != nil {
			return err
		}
		desc := "reservation " + strings.ToLower(string(req.Decision))
		if req.RejectReason != "" && req.Decision == model.ReservationRejected {
			desc += ": " + req.RejectReason
		}
		return s.logTx(ctx, tx, key.EventID, model.OpApprove, before, after, desc, req.OperatorID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDecision(string(req.Decision))
	s.log.WithOperation("approve_reservation").WithEventID(key.EventID).Info().
		Str("decision", string(req.Decision)).Str("operator", req.OperatorID).Msg("reservation decided")
	sponsor, lookupErr := s.sponsors.GetSponsorName(ctx, key.CollaborationID)
	if lookupErr != nil {
		s.log.WithEventID(key.EventID).WithError(lookupErr).Warn().Msg("sponsor name lookup failed")
	}
	s.notify(ctx, queue.ActivityEvent{
		Type:       queue.ReservationDecided,
		EventID:    key.EventID,
		AreaID:     key.AreaID,
		Sponsor:    sponsor,
		Status:     string(req.Decision),
		OperatorID: req.OperatorID,
	})
	return &after, nil
}

// GetReservationsByStatus lists reservations, optionally filtered by
// status, newest first.
func (s *VenueService) GetReservationsByStatus(ctx context.Context, status *model.ReservationStatus) (out []repository.ReservationRow, err error) {
	defer s.finish("get_reservations", time.Now(), &err)
	if status != nil && !status.Valid() {
		return nil, apperr.Validation("invalid_status", fmt.Sprintf("unknown reservation status %q", *status))
	}
	out, err = s.reservations.ListRows(ctx, status, nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []repository.ReservationRow{}
	}
	return out, nil
}

// ReservationView is an event with all of its details.
type ReservationView struct {
	Event   model.Event                 `json:"event"`
	Details []repository.ReservationRow `json:"details"`
}

// GetReservation returns an event and its details.
func (s *VenueService) GetReservation(ctx context.Context, eventID uint64) (out *ReservationView, err error) {
	defer s.finish("get_reservation", time.Now(), &err)
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event", eventID)
	}
	rows, err := s.reservations.ListRows(ctx, nil, &eventID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.ReservationRow{}
	}
	return &ReservationView{Event: *ev, Details: rows}, nil
}

// Availability answers whether an area is free over a window.  Conflicts
// lists the APPROVED windows that overlap it.
type Availability struct {
	AreaID    uint64         `json:"area_id"`
	Window    model.Window   `json:"window"`
	Available bool           `json:"available"`
	Conflicts []model.Window `json:"conflicts"`
}

// CheckAvailability reports whether [start, end) is free on areaID.
func (s *VenueService) CheckAvailability(ctx context.Context, areaID uint64, start, end time.Time) (out *Availability, err error) {
	defer s.finish("check_availability", time.Now(), &err)
	w := model.Window{Start: start.UTC(), End: end.UTC()}
	if w.Empty() {
		return nil, apperr.Validation("invalid_window", "end must be after start")
	}
	ok, err := s.resources.ResourceExists(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("area", areaID)
	}
	taken, err := s.Overlaps(ctx, areaID, w.Start, w.End, 0)
	if err != nil {
		return nil, err
	}
	out = &Availability{AreaID: areaID, Window: w, Available: !taken, Conflicts: []model.Window{}}
	if !taken {
		return out, nil
	}
	approved, err := s.reservations.ListApprovedByArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	for _, d := range approved {
		if d.Window().Overlaps(w) {
			out.Conflicts = append(out.Conflicts, d.Window())
		}
	}
	return out, nil
}

// errNoApproved is returned by approvedDetail when an event has no
// APPROVED detail.
var errNoApproved = errors.New("no approved reservation")

func approvedDetail(details []model.ReservationDetail) (model.ReservationDetail, error) {
	for _, d := range details {
		if d.Status == model.ReservationApproved {
			return d, nil
		}
	}
	return model.ReservationDetail{}, errNoApproved
}
