package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReportRepo stores generated statistics reports.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sqlx.DB) *ReportRepo { return &ReportRepo{db: db} }

// Create inserts rep and populates its generated ID.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	const q = `INSERT INTO venue_event_reports (report_type, title, start_date, end_date, area_id, collaboration_id, total_events,
        total_rental_hours, total_revenue, average_attendance, average_occupancy_rate, status, generated_by, generated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rep.Type, rep.Title, utc(rep.StartDate), utc(rep.EndDate), rep.AreaID, rep.CollaborationID,
		rep.TotalEvents, rep.TotalRentalHours, rep.TotalRevenue, rep.AverageAttendance, rep.AverageOccupancyRate,
		rep.Status, rep.GeneratedBy, utc(rep.GeneratedAt))
	if err != nil {
		return classify(err)
	}
	rep.ID, err = lastID(res)
	return err
}

// List returns every report, most recently generated first.
func (r *ReportRepo) List(ctx context.Context) ([]model.Report, error) {
	const q = `SELECT id, report_type, title, start_date, end_date, area_id, collaboration_id, total_events, total_rental_hours,
        total_revenue, average_attendance, average_occupancy_rate, status, generated_by, generated_at
        FROM venue_event_reports ORDER BY generated_at DESC, id DESC`
	var out []model.Report
	err := r.db.SelectContext(ctx, &out, q)
	return out, classify(err)
}
