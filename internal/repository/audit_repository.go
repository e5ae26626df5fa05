package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// AuditRepo appends to and reads the venue operation log.  Rows are never
// updated or deleted.
type AuditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// AppendTx writes e within tx so the entry commits with the change it
// describes.
func (r *AuditRepo) AppendTx(ctx context.Context, tx *sqlx.Tx, e *model.AuditEntry) error {
	const q = `INSERT INTO venue_event_logs (event_id, operation_type, old_values, new_values, description, operator_id, operation_time)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.EventID, e.Operation, e.OldValues, e.NewValues, e.Description, e.OperatorID, utc(e.OperatedAt))
	if err != nil {
		return classify(err)
	}
	e.ID, err = lastID(res)
	return err
}

// ListByEvent returns the log of one event, most recent first.
func (r *AuditRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.AuditEntry, error) {
	const q = `SELECT id, event_id, operation_type, old_values, new_values, description, operator_id, operation_time
        FROM venue_event_logs WHERE event_id = ? ORDER BY operation_time DESC, id DESC`
	var out []model.AuditEntry
	err := r.db.SelectContext(ctx, &out, q, eventID)
	return out, classify(err)
}
