package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// CatalogRepo is the read model of areas, sponsors, fee configurations and
// add-on services.  Venue operations only read from it; the create methods
// serve catalog administration.
type CatalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// =============================================================================
// Areas
// =============================================================================

type areaRow struct {
	ID        uint64    `db:"id"`
	Name      string    `db:"name"`
	Kind      string    `db:"kind"`
	Extension string    `db:"extension"`
	Active    bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (row areaRow) toModel() (*model.Area, error) {
	kind := model.AreaKind(row.Kind)
	ext, err := model.DecodeAreaExtension(kind, []byte(row.Extension))
	if err != nil {
		return nil, err
	}
	return &model.Area{ID: row.ID, Name: row.Name, Kind: kind, Active: row.Active, Ext: ext}, nil
}

// CreateArea inserts a, storing its extension as JSON keyed by kind.
func (r *CatalogRepo) CreateArea(ctx context.Context, a *model.Area) error {
	if a.Ext == nil || a.Ext.Kind() != a.Kind {
		return errors.New("area extension does not match kind")
	}
	raw, err := json.Marshal(a.Ext)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO areas (name, kind, extension, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.Kind, string(raw), a.Active, time.Now().UTC())
	if err != nil {
		return classify(err)
	}
	a.ID, err = lastID(res)
	return err
}

// GetArea loads one area and decodes its extension.
func (r *CatalogRepo) GetArea(ctx context.Context, id uint64) (*model.Area, error) {
	var row areaRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, kind, extension, is_active, created_at FROM areas WHERE id = ?`, id); err != nil {
		return nil, classify(err)
	}
	return row.toModel()
}

// ListAreas returns every area ordered by id.
func (r *CatalogRepo) ListAreas(ctx context.Context) ([]model.Area, error) {
	var rows []areaRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, kind, extension, is_active, created_at FROM areas ORDER BY id`); err != nil {
		return nil, classify(err)
	}
	out := make([]model.Area, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// ResourceExists reports whether areaID names an active event area.
func (r *CatalogRepo) ResourceExists(ctx context.Context, areaID uint64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM areas WHERE id = ? AND kind = ? AND is_active = ?`,
		areaID, model.AreaKindEvent, true)
	return n > 0, classify(err)
}

// =============================================================================
// Sponsors
// =============================================================================

// CreateCollaboration inserts a sponsor.
func (r *CatalogRepo) CreateCollaboration(ctx context.Context, c *model.Collaboration) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO collaborations (name, is_active, created_at) VALUES (?, ?, ?)`,
		c.Name, c.Active, time.Now().UTC())
	if err != nil {
		return classify(err)
	}
	c.ID, err = lastID(res)
	return err
}

// ListCollaborations returns every sponsor ordered by id.
func (r *CatalogRepo) ListCollaborations(ctx context.Context) ([]model.Collaboration, error) {
	var out []model.Collaboration
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, is_active FROM collaborations ORDER BY id`)
	return out, classify(err)
}

// SponsorExists reports whether id names an active sponsor.
func (r *CatalogRepo) SponsorExists(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM collaborations WHERE id = ? AND is_active = ?`, id, true)
	return n > 0, classify(err)
}

// GetSponsorName returns the display name of a sponsor.
func (r *CatalogRepo) GetSponsorName(ctx context.Context, id uint64) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT name FROM collaborations WHERE id = ?`, id)
	return name, classify(err)
}

// =============================================================================
// Fee configurations
// =============================================================================

const feeColumns = `id, area_id, hourly_rate, min_hours, overtime_rate, holiday_multiplier, weekend_multiplier, effective_date, expiry_date, is_active`

// CreateFeeConfig inserts a rate schedule for an area.
func (r *CatalogRepo) CreateFeeConfig(ctx context.Context, f *model.FeeConfig) error {
	const q = `INSERT INTO venue_fee_configs (area_id, hourly_rate, min_hours, overtime_rate, holiday_multiplier, weekend_multiplier, effective_date, expiry_date, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.AreaID, f.HourlyRate, f.MinHours, f.OvertimeRate, f.HolidayMultiplier,
		f.WeekendMultiplier, utc(f.EffectiveDate), utcPtr(f.ExpiryDate), f.Active)
	if err != nil {
		return classify(err)
	}
	f.ID, err = lastID(res)
	return err
}

// ListFeeConfigs returns every schedule of an area, latest effective first.
func (r *CatalogRepo) ListFeeConfigs(ctx context.Context, areaID uint64) ([]model.FeeConfig, error) {
	var out []model.FeeConfig
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+feeColumns+` FROM venue_fee_configs WHERE area_id = ? ORDER BY effective_date DESC, id DESC`, areaID)
	return out, classify(err)
}

// GetFeeConfig returns the schedule in force for areaID at asOf: active,
// effective on or before asOf, not yet expired, latest effective date
// first.  It returns (nil, nil) when none applies.
func (r *CatalogRepo) GetFeeConfig(ctx context.Context, areaID uint64, asOf time.Time) (*model.FeeConfig, error) {
	q := `SELECT ` + feeColumns + ` FROM venue_fee_configs
        WHERE area_id = ? AND is_active = ? AND effective_date <= ? AND (expiry_date IS NULL OR expiry_date > ?)
        ORDER BY effective_date DESC, id DESC LIMIT 1`
	var f model.FeeConfig
	err := r.db.GetContext(ctx, &f, q, areaID, true, utc(asOf), utc(asOf))
	if err != nil {
		if err = classify(err); errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// =============================================================================
// Add-on services
// =============================================================================

const serviceColumns = `id, name, fee, billing_unit, description, is_active`

// CreateService inserts an add-on service.
func (r *CatalogRepo) CreateService(ctx context.Context, s *model.AdditionalService) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO additional_services (name, fee, billing_unit, description, is_active) VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.Fee, s.Unit, s.Description, s.Active)
	if err != nil {
		return classify(err)
	}
	s.ID, err = lastID(res)
	return err
}

// GetActiveService returns the service when it exists and is active, and
// (nil, nil) otherwise.
func (r *CatalogRepo) GetActiveService(ctx context.Context, id uint64) (*model.AdditionalService, error) {
	var s model.AdditionalService
	err := r.db.GetContext(ctx, &s, `SELECT `+serviceColumns+` FROM additional_services WHERE id = ? AND is_active = ?`, id, true)
	if err != nil {
		if err = classify(err); errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListActiveServices returns active services ordered by name.
func (r *CatalogRepo) ListActiveServices(ctx context.Context) ([]model.AdditionalService, error) {
	var out []model.AdditionalService
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+serviceColumns+` FROM additional_services WHERE is_active = ? ORDER BY name, id`, true)
	return out, classify(err)
}
