package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// BillingRepo persists billings and their add-on lines.  The event_id
// column is unique, so a second billing for the same event fails with
// ErrDuplicate even when two inserts race.
type BillingRepo struct {
	db *sqlx.DB
}

// NewBillingRepo returns a new BillingRepo bound to the given database.
func NewBillingRepo(db *sqlx.DB) *BillingRepo { return &BillingRepo{db: db} }

const billingColumns = `id, event_id, area_id, collaboration_id, actual_start, actual_end, rental_hours, base_fee, additional_fee, total_fee,
    status, payment_method, payment_time, transaction_id, invoice_info, remarks, created_by, created_at, confirmed_at, confirmed_by, updated_at`

// CreateTx inserts b within tx and populates its generated ID.
func (r *BillingRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, b *model.Billing) error {
	const q = `INSERT INTO venue_event_billings (event_id, area_id, collaboration_id, actual_start, actual_end, rental_hours, base_fee,
        additional_fee, total_fee, status, payment_method, transaction_id, invoice_info, remarks, created_by, created_at, confirmed_by, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.EventID, b.AreaID, b.CollaborationID, utc(b.ActualStart), utc(b.ActualEnd), b.RentalHours, b.BaseFee,
		b.AdditionalFee, b.TotalFee, b.Status, b.PaymentMethod, b.TransactionID, b.InvoiceInfo, b.Remarks,
		b.CreatedBy, utc(b.CreatedAt), b.ConfirmedBy, utc(b.UpdatedAt))
	if err != nil {
		return classify(err)
	}
	b.ID, err = lastID(res)
	return err
}

// CreateLinesTx inserts multiple billing_service_details rows in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *BillingRepo) CreateLinesTx(ctx context.Context, tx *sqlx.Tx, lines []model.BillingServiceDetail) error {
	if len(lines) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO billing_service_details (billing_id, service_id, quantity, unit_price, subtotal) VALUES `)
	args := make([]any, 0, len(lines)*5)
	for i, l := range lines {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, l.BillingID, l.ServiceID, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return classify(err)
}

// GetByID loads a billing outside any transaction.
func (r *BillingRepo) GetByID(ctx context.Context, id uint64) (*model.Billing, error) {
	return getBilling(ctx, r.db, `id = ?`, id)
}

// GetByIDTx loads a billing within tx.
func (r *BillingRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Billing, error) {
	return getBilling(ctx, tx, `id = ?`, id)
}

// GetByEventTx loads the billing of an event within tx.
func (r *BillingRepo) GetByEventTx(ctx context.Context, tx *sqlx.Tx, eventID uint64) (*model.Billing, error) {
	return getBilling(ctx, tx, `event_id = ?`, eventID)
}

func getBilling(ctx context.Context, q Querier, where string, arg any) (*model.Billing, error) {
	var b model.Billing
	if err := q.GetContext(ctx, &b, `SELECT `+billingColumns+` FROM venue_event_billings WHERE `+where, arg); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// UpdateTx writes the settlement columns of b.  Fee columns are never
// rewritten after creation.
func (r *BillingRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, b *model.Billing) error {
	const q = `UPDATE venue_event_billings SET status = ?, payment_method = ?, payment_time = ?, transaction_id = ?, invoice_info = ?,
        remarks = ?, confirmed_at = ?, confirmed_by = ?, updated_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, b.Status, b.PaymentMethod, utcPtr(b.PaymentTime), b.TransactionID, b.InvoiceInfo,
		b.Remarks, utcPtr(b.ConfirmedAt), b.ConfirmedBy, utc(b.UpdatedAt), b.ID)
	return classify(err)
}

// List returns billings optionally filtered by status and event, newest first.
func (r *BillingRepo) List(ctx context.Context, status *model.BillingStatus, eventID *uint64) ([]model.Billing, error) {
	q := `SELECT ` + billingColumns + ` FROM venue_event_billings WHERE 1 = 1`
	args := []any{}
	if status != nil {
		q += ` AND status = ?`
		args = append(args, *status)
	}
	if eventID != nil {
		q += ` AND event_id = ?`
		args = append(args, *eventID)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	var out []model.Billing
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, classify(err)
}

// BillingLine is a billing_service_details row joined with its service.
type BillingLine struct {
	ServiceID   uint64            `db:"service_id" json:"service_id"`
	ServiceName string            `db:"service_name" json:"service_name"`
	BillingUnit model.BillingUnit `db:"billing_unit" json:"billing_unit"`
	Quantity    decimal.Decimal   `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal   `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal   `db:"subtotal" json:"subtotal"`
}

// ListLines returns the add-on lines of one billing in insertion order.
func (r *BillingRepo) ListLines(ctx context.Context, billingID uint64) ([]BillingLine, error) {
	const q = `SELECT l.service_id, s.name AS service_name, s.billing_unit, l.quantity, l.unit_price, l.subtotal
        FROM billing_service_details l
        JOIN additional_services s ON s.id = l.service_id
        WHERE l.billing_id = ?
        ORDER BY l.id`
	var out []BillingLine
	err := r.db.SelectContext(ctx, &out, q, billingID)
	return out, classify(err)
}
