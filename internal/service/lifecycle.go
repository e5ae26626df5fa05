package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	EventID     uint64                `json:"-"`
	Name        *string               `json:"event_name,omitempty"`
	Headcount   *int                  `json:"headcount,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *model.ActivityStatus `json:"status,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	OperatorID  string                `json:"-"`
}

// eventSnapshot is what the audit log records for lifecycle changes.
type eventSnapshot struct {
	Event   model.Event               `json:"event"`
	Details []model.ReservationDetail `json:"details"`
}

// UpdateEvent edits an event whose reservation is APPROVED and which is not
// yet COMPLETED.  A status change must follow the lifecycle graph; a move
// to CANCELLED cascades exactly like CancelEvent.
func (s *VenueService) UpdateEvent(ctx context.Context, req UpdateEventRequest) (out *model.Event, err error) {
	defer s.finish("update_event", time.Now(), &err)
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperr.Validation("invalid_status", fmt.Sprintf("unknown activity status %q", *req.Status))
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("missing_name", "event_name must not be empty")
	}
	if req.Headcount != nil && *req.Headcount < 0 {
		return nil, apperr.Validation("invalid_headcount", "headcount must not be negative")
	}

	var after model.Event
	cancelled := false
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.events.GetByIDTx(ctx, tx, req.EventID)
		if err != nil {
			return notFoundOr(err, "event", req.EventID)
		}
		details, err := s.reservations.ListByEventTx(ctx, tx, req.EventID)
		if err != nil {
			return err
		}
		if _, err := approvedDetail(details); err != nil {
			current := "MISSING"
			if len(details) > 0 {
				current = string(details[0].Status)
			}
			return apperr.InvalidState("reservation", current, "update event")
		}
		after = *before
		changed := false
		if req.Status != nil && *req.Status != before.Status {
			if !before.Status.CanTransitionTo(*req.Status) {
				return apperr.InvalidTransition("event", string(before.Status), string(*req.Status))
			}
			after.Status = *req.Status
			changed = true
		}
		if before.Status.Terminal() {
			return apperr.InvalidState("event", string(before.Status), "update")
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) != before.Name {
			after.Name = strings.TrimSpace(*req.Name)
			changed = true
		}
		if req.Description != nil && *req.Description != before.Description {
			after.Description = *req.Description
			changed = true
		}
		if req.Headcount != nil && (before.Headcount == nil || *before.Headcount != *req.Headcount) {
			if *req.Headcount > before.Capacity {
				return apperr.Capacity(*req.Headcount, before.Capacity)
			}
			hc := *req.Headcount
			after.Headcount = &hc
			changed = true
		}
		if !changed {
			return apperr.Validation("no_changes", "no changes detected")
		}
		after.UpdatedAt = s.clock()
		if err := s.events.UpdateTx(ctx, tx, &after); err != nil {
			return err
		}

		op := model.OpUpdate
		afterDetails := details
		if after.Status == model.ActivityCancelled {
			op = model.OpCancel
			cancelled = true
			if afterDetails, err = s.cascadeCancelTx(ctx, tx, details, after.UpdatedAt); err != nil {
				return err
			}
		}
		desc := "event updated"
		if req.Reason != "" {
			desc += ": " + req.Reason
		}
		return s.logTx(ctx, tx, req.EventID, op,
			eventSnapshot{Event: *before, Details: details},
			eventSnapshot{Event: after, Details: afterDetails}, desc, req.OperatorID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithOperation("update_event").WithEventID(req.EventID).Info().
		Str("status", string(after.Status)).Str("operator", req.OperatorID).Msg("event updated")
	if cancelled {
		s.notifyCancelled(ctx, req.EventID, req.OperatorID)
	}
	return &after, nil
}

// CancelEvent marks an event CANCELLED and cancels its PENDING and APPROVED
// details, which frees the area.  COMPLETED and CANCELLED events cannot be
// cancelled.
func (s *VenueService) CancelEvent(ctx context.Context, eventID uint64, operatorID, reason string) (out *model.Event, err error) {
	defer s.finish("cancel_event", time.Now(), &err)
	var after model.Event
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.events.GetByIDTx(ctx, tx, eventID)
		if err != nil {
			return notFoundOr(err, "event", eventID)
		}
		if !before.Status.CanTransitionTo(model.ActivityCancelled) {
			return apperr.InvalidState("event", string(before.Status), "cancel")
		}
		details, err := s.reservations.ListByEventTx(ctx, tx, eventID)
		if err != nil {
			return err
		}
		after = *before
		after.Status = model.ActivityCancelled
		after.UpdatedAt = s.clock()
		if err := s.events.UpdateTx(ctx, tx, &after); err != nil {
			return err
		}
		afterDetails, err := s.cascadeCancelTx(ctx, tx, details, after.UpdatedAt)
		if err != nil {
			return err
		}
		desc := "event cancelled"
		if reason != "" {
			desc += ": " + reason
		}
		return s.logTx(ctx, tx, eventID, model.OpCancel,
			eventSnapshot{Event: *before, Details: details},
			eventSnapshot{Event: after, Details: afterDetails}, desc, operatorID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithOperation("cancel_event").WithEventID(eventID).Info().Str("operator", operatorID).Msg("event cancelled")
	s.notifyCancelled(ctx, eventID, operatorID)
	return &after, nil
}

// cascadeCancelTx moves every detail that may still be cancelled to
// CANCELLED and returns the resulting detail set.  REJECTED details are
// left as they are.
func (s *VenueService) cascadeCancelTx(ctx context.Context, tx *sqlx.Tx, details []model.ReservationDetail, at time.Time) ([]model.ReservationDetail, error) {
	out := make([]model.ReservationDetail, 0, len(details))
	for _, d := range details {
		if d.Status.CanTransitionTo(model.ReservationCancelled) {
			key := repository.DetailKey{EventID: d.EventID, AreaID: d.AreaID, CollaborationID: d.CollaborationID}
			if err := s.reservations.UpdateStatusTx(ctx, tx, key, model.ReservationCancelled, d.Remarks, at); err != nil {
				return nil, err
			}
			d.Status = model.ReservationCancelled
			d.UpdatedAt = at
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *VenueService) notifyCancelled(ctx context.Context, eventID uint64, operatorID string) {
	s.notify(ctx, queue.ActivityEvent{
		Type:       queue.EventCancelled,
		EventID:    eventID,
		Status:     string(model.ActivityCancelled),
		OperatorID: operatorID,
	})
}
