package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportType is the period a statistics report covers.
type ReportType string

const (
	ReportDaily   ReportType = "DAILY"
	ReportWeekly  ReportType = "WEEKLY"
	ReportMonthly ReportType = "MONTHLY"
	ReportCustom  ReportType = "CUSTOM"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportCustom:
		return true
	}
	return false
}

const ReportCompleted = "COMPLETED"

// Report is a persisted snapshot of venue statistics over a date range.
type Report struct {
	ID                   uint64          `db:"id" json:"report_id"`
	Type                 ReportType      `db:"report_type" json:"report_type"`
	Title                string          `db:"title" json:"report_title"`
	StartDate            time.Time       `db:"start_date" json:"start_date"`
	EndDate              time.Time       `db:"end_date" json:"end_date"`
	AreaID               *uint64         `db:"area_id" json:"area_id,omitempty"`
	CollaborationID      *uint64         `db:"collaboration_id" json:"collaboration_id,omitempty"`
	TotalEvents          int             `db:"total_events" json:"total_events"`
	TotalRentalHours     decimal.Decimal `db:"total_rental_hours" json:"total_rental_hours"`
	TotalRevenue         decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	AverageAttendance    decimal.Decimal `db:"average_attendance" json:"average_attendance"`
	AverageOccupancyRate decimal.Decimal `db:"average_occupancy_rate" json:"average_occupancy_rate"`
	Status               string          `db:"status" json:"status"`
	GeneratedBy          string          `db:"generated_by" json:"generated_by"`
	GeneratedAt          time.Time       `db:"generated_at" json:"generated_time"`
}
