package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// logTx appends one audit entry inside tx.  before and after are stored as
// JSON snapshots; nil leaves the column empty.
func (s *VenueService) logTx(ctx context.Context, tx *sqlx.Tx, eventID uint64, op model.Operation, before, after any, description, operatorID string) error {
	oldValues, err := snapshot(before)
	if err != nil {
		return err
	}
	newValues, err := snapshot(after)
	if err != nil {
		return err
	}
	return s.audit.AppendTx(ctx, tx, &model.AuditEntry{
		EventID:     eventID,
		Operation:   op,
		OldValues:   oldValues,
		NewValues:   newValues,
		Description: description,
		OperatorID:  operatorID,
		OperatedAt:  s.clock(),
	})
}

func snapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetEventLog returns the audit trail of an event, most recent first.
func (s *VenueService) GetEventLog(ctx context.Context, eventID uint64) (out []model.AuditEntry, err error) {
	defer s.finish("get_event_log", time.Now(), &err)
	if _, err = s.events.GetByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event", eventID)
	}
	out, err = s.audit.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.AuditEntry{}
	}
	return out, nil
}
