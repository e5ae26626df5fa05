package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// ReportRequest selects the APPROVED reservations whose rental start lies
// in [Start, End], optionally restricted to one area and/or sponsor.
type ReportRequest struct {
	Type            model.ReportType `json:"report_type"`
	Start           time.Time        `json:"start_date"`
	End             time.Time        `json:"end_date"`
	AreaID          *uint64          `json:"area_id,omitempty"`
	CollaborationID *uint64          `json:"collaboration_id,omitempty"`
	Title           string           `json:"report_title,omitempty"`
	GeneratedBy     string           `json:"-"`
}

var hundred = decimal.NewFromInt(100)

// GenerateReport aggregates statistics over the selected reservations and
// stores the result.  A period with no reservations is rejected.
func (s *VenueService) GenerateReport(ctx context.Context, req ReportRequest) (out *model.Report, err error) {
	defer s.finish("generate_report", time.Now(), &err)
	if !req.Type.Valid() {
		return nil, apperr.Validation("invalid_report_type", fmt.Sprintf("unknown report type %q", req.Type))
	}
	if (model.Window{Start: req.Start, End: req.End}).Empty() {
		return nil, apperr.Validation("invalid_window", "end_date must be after start_date")
	}
	rows, err := s.reservations.ListApprovedForReport(ctx, req.Start, req.End, req.AreaID, req.CollaborationID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("no_data", "no approved reservations in the selected period")
	}

	rep := aggregate(rows)
	rep.Type = req.Type
	rep.StartDate = req.Start.UTC()
	rep.EndDate = req.End.UTC()
	rep.AreaID = req.AreaID
	rep.CollaborationID = req.CollaborationID
	rep.Title = strings.TrimSpace(req.Title)
	if rep.Title == "" {
		rep.Title = fmt.Sprintf("Venue event report (%s to %s)", req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}
	rep.Status = model.ReportCompleted
	rep.GeneratedBy = req.GeneratedBy
	rep.GeneratedAt = s.clock()

	if err := s.reports.Create(ctx, &rep); err != nil {
		return nil, err
	}
	s.log.WithOperation("generate_report").Info().
		Uint64("report_id", rep.ID).Int("total_events", rep.TotalEvents).Str("total_revenue", rep.TotalRevenue.String()).
		Msg("report generated")
	return &rep, nil
}

// aggregate computes the statistics of rows, which must not be empty.
// Unbilled events contribute zero revenue.  Attendance averages the known
// headcounts; occupancy averages headcount/capacity over events that have
// both.
func aggregate(rows []repository.ReportSourceRow) model.Report {
	var rep model.Report
	rep.TotalEvents = len(rows)
	rep.TotalRentalHours = decimal.Zero
	rep.TotalRevenue = decimal.Zero

	attendance, attended := decimal.Zero, 0
	occupancy, occupied := decimal.Zero, 0
	for _, r := range rows {
		hours := decimal.NewFromInt(int64(r.RentEnd.Sub(r.RentStart))).Div(hour).Round(2)
		rep.TotalRentalHours = rep.TotalRentalHours.Add(hours)
		if r.TotalFee.Valid {
			rep.TotalRevenue = rep.TotalRevenue.Add(r.TotalFee.Decimal)
		}
		if r.Headcount == nil {
			continue
		}
		hc := decimal.NewFromInt(int64(*r.Headcount))
		attendance = attendance.Add(hc)
		attended++
		if r.Capacity > 0 {
			occupancy = occupancy.Add(hc.Div(decimal.NewFromInt(int64(r.Capacity))).Mul(hundred))
			occupied++
		}
	}

	rep.AverageAttendance = decimal.Zero
	if attended > 0 {
		rep.AverageAttendance = attendance.Div(decimal.NewFromInt(int64(attended))).Round(2)
	}
	rep.AverageOccupancyRate = decimal.Zero
	if occupied > 0 {
		rep.AverageOccupancyRate = occupancy.Div(decimal.NewFromInt(int64(occupied))).Round(2)
	}
	rep.TotalRentalHours = rep.TotalRentalHours.Round(2)
	rep.TotalRevenue = rep.TotalRevenue.Round(2)
	return rep
}

// GetReports lists stored reports, newest first.
func (s *VenueService) GetReports(ctx context.Context) (out []model.Report, err error) {
	defer s.finish("get_reports", time.Now(), &err)
	out, err = s.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Report{}
	}
	return out, nil
}
