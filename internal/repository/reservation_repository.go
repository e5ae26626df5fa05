package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationRepo persists reservation details, the (event, area, sponsor)
// booking triples.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const detailColumns = `d.event_id, d.area_id, d.collaboration_id, d.rent_start, d.rent_end, d.status, d.funding, d.purpose, d.remarks, d.created_at, d.updated_at`

// DetailKey identifies one reservation detail.
type DetailKey struct {
	EventID         uint64
	AreaID          uint64
	CollaborationID uint64
}

// ReservationRow is a detail joined with the names a caller needs to
// display it.
type ReservationRow struct {
	model.ReservationDetail
	EventName         string               `db:"event_name" json:"event_name"`
	ActivityStatus    model.ActivityStatus `db:"activity_status" json:"activity_status"`
	AreaName          string               `db:"area_name" json:"area_name"`
	CollaborationName string               `db:"collaboration_name" json:"collaboration_name"`
}

// CreateTx inserts a detail within tx.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, d *model.ReservationDetail) error {
	const q = `INSERT INTO venue_event_details (event_id, area_id, collaboration_id, rent_start, rent_end, status, funding, purpose, remarks, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		d.EventID, d.AreaID, d.CollaborationID, utc(d.RentStart), utc(d.RentEnd), d.Status,
		d.Funding, d.Purpose, d.Remarks, utc(d.CreatedAt), utc(d.UpdatedAt))
	return classify(err)
}

// GetTx loads the detail identified by key within tx.
func (r *ReservationRepo) GetTx(ctx context.Context, tx *sqlx.Tx, key DetailKey) (*model.ReservationDetail, error) {
	var d model.ReservationDetail
	q := `SELECT ` + detailColumns + ` FROM venue_event_details d WHERE d.event_id = ? AND d.area_id = ? AND d.collaboration_id = ?`
	if err := tx.GetContext(ctx, &d, q, key.EventID, key.AreaID, key.CollaborationID); err != nil {
		return nil, classify(err)
	}
	return &d, nil
}

// ListByEvent returns the details of one event.
func (r *ReservationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.ReservationDetail, error) {
	return listDetailsByEvent(ctx, r.db, eventID)
}

// ListByEventTx is ListByEvent within tx.
func (r *ReservationRepo) ListByEventTx(ctx context.Context, tx *sqlx.Tx, eventID uint64) ([]model.ReservationDetail, error) {
	return listDetailsByEvent(ctx, tx, eventID)
}

func listDetailsByEvent(ctx context.Context, q Querier, eventID uint64) ([]model.ReservationDetail, error) {
	var out []model.ReservationDetail
	err := q.SelectContext(ctx, &out,
		`SELECT `+detailColumns+` FROM venue_event_details d WHERE d.event_id = ? ORDER BY d.area_id, d.collaboration_id`, eventID)
	return out, classify(err)
}

// ListRows returns details joined with event, area and sponsor names,
// optionally filtered by status and/or event, newest first.
func (r *ReservationRepo) ListRows(ctx context.Context, status *model.ReservationStatus, eventID *uint64) ([]ReservationRow, error) {
	q := `SELECT ` + detailColumns + `, e.name AS event_name, e.status AS activity_status, a.name AS area_name, c.name AS collaboration_name
        FROM venue_event_details d
        JOIN venue_events e ON e.id = d.event_id
        JOIN areas a ON a.id = d.area_id
        JOIN collaborations c ON c.id = d.collaboration_id
        WHERE 1 = 1`
	args := []any{}
	if status != nil {
		q += ` AND d.status = ?`
		args = append(args, *status)
	}
	if eventID != nil {
		q += ` AND d.event_id = ?`
		args = append(args, *eventID)
	}
	q += ` ORDER BY d.created_at DESC, d.event_id DESC`
	var out []ReservationRow
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, classify(err)
}

// UpdateStatusTx sets status and remarks of one detail.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, key DetailKey, status model.ReservationStatus, remarks string, at time.Time) error {
	const q = `UPDATE venue_event_details SET status = ?, remarks = ?, updated_at = ? WHERE event_id = ? AND area_id = ? AND collaboration_id = ?`
	_, err := tx.ExecContext(ctx, q, status, remarks, utc(at), key.EventID, key.AreaID, key.CollaborationID)
	return classify(err)
}

// HasApprovedOverlap reports whether an APPROVED detail on areaID overlaps
// the half-open window [start, end).  Details of excludeEventID are ignored;
// pass 0 to consider every event.
func (r *ReservationRepo) HasApprovedOverlap(ctx context.Context, areaID uint64, start, end time.Time, excludeEventID uint64) (bool, error) {
	return hasApprovedOverlap(ctx, r.db, areaID, start, end, excludeEventID)
}

// HasApprovedOverlapTx is HasApprovedOverlap within tx.
func (r *ReservationRepo) HasApprovedOverlapTx(ctx context.Context, tx *sqlx.Tx, areaID uint64, start, end time.Time, excludeEventID uint64) (bool, error) {
	return hasApprovedOverlap(ctx, tx, areaID, start, end, excludeEventID)
}

func hasApprovedOverlap(ctx context.Context, q Querier, areaID uint64, start, end time.Time, excludeEventID uint64) (bool, error) {
	const sel = `SELECT COUNT(*) FROM venue_event_details
        WHERE area_id = ? AND status = ? AND rent_start < ? AND ? < rent_end AND event_id <> ?`
	var n int
	if err := q.GetContext(ctx, &n, sel, areaID, model.ReservationApproved, utc(end), utc(start), excludeEventID); err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// ListApprovedByArea returns the APPROVED details of one area ordered by start.
func (r *ReservationRepo) ListApprovedByArea(ctx context.Context, areaID uint64) ([]model.ReservationDetail, error) {
	var out []model.ReservationDetail
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+detailColumns+` FROM venue_event_details d WHERE d.area_id = ? AND d.status = ? ORDER BY d.rent_start`,
		areaID, model.ReservationApproved)
	return out, classify(err)
}

// ReportSourceRow carries what report aggregation needs about one APPROVED
// detail.  TotalFee is null when the event has not been billed or its
// billing was voided.
type ReportSourceRow struct {
	RentStart time.Time           `db:"rent_start"`
	RentEnd   time.Time           `db:"rent_end"`
	Headcount *int                `db:"headcount"`
	Capacity  int                 `db:"capacity"`
	TotalFee  decimal.NullDecimal `db:"total_fee"`
}

// ListApprovedForReport returns APPROVED details whose rental start lies in
// [from, to], optionally restricted to one area and/or sponsor.
func (r *ReservationRepo) ListApprovedForReport(ctx context.Context, from, to time.Time, areaID, collaborationID *uint64) ([]ReportSourceRow, error) {
	q := `SELECT d.rent_start, d.rent_end, e.headcount, e.capacity, b.total_fee
        FROM venue_event_details d
        JOIN venue_events e ON e.id = d.event_id
        LEFT JOIN venue_event_billings b ON b.event_id = d.event_id AND b.status <> ?
        WHERE d.status = ? AND d.rent_start >= ? AND d.rent_start <= ?`
	args := []any{model.BillingCancelled, model.ReservationApproved, utc(from), utc(to)}
	if areaID != nil {
		q += ` AND d.area_id = ?`
		args = append(args, *areaID)
	}
	if collaborationID != nil {
		q += ` AND d.collaboration_id = ?`
		args = append(args, *collaborationID)
	}
	q += ` ORDER BY d.rent_start`
	var out []ReportSourceRow
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, classify(err)
}
