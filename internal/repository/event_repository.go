package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// EventRepo persists venue events.  Events are never deleted; the
// repository offers no delete operation.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, name, start_time, end_time, capacity, headcount, fee, expense, status, description, created_at, updated_at`

// CreateTx inserts ev within tx and populates its generated ID.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, ev *model.Event) error {
	const q = `INSERT INTO venue_events (name, start_time, end_time, capacity, headcount, fee, expense, status, description, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		ev.Name, utc(ev.StartTime), utc(ev.EndTime), ev.Capacity, ev.Headcount,
		ev.Fee, ev.Expense, ev.Status, ev.Description, utc(ev.CreatedAt), utc(ev.UpdatedAt))
	if err != nil {
		return classify(err)
	}
	ev.ID, err = lastID(res)
	return err
}

// GetByID loads an event outside any transaction.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	return getEvent(ctx, r.db, id)
}

// GetByIDTx loads an event within tx.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Event, error) {
	return getEvent(ctx, tx, id)
}

func getEvent(ctx context.Context, q Querier, id uint64) (*model.Event, error) {
	var ev model.Event
	if err := q.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM venue_events WHERE id = ?`, id); err != nil {
		return nil, classify(err)
	}
	return &ev, nil
}

// UpdateTx writes the mutable columns of ev.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, ev *model.Event) error {
	const q = `UPDATE venue_events SET name = ?, headcount = ?, status = ?, description = ?, updated_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, ev.Name, ev.Headcount, ev.Status, ev.Description, utc(ev.UpdatedAt), ev.ID)
	return classify(err)
}
