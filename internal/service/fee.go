package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FeeRule is the rate schedule applied to one billing.  ConfigID is zero
// when the engine default was used.
type FeeRule struct {
	ConfigID          uint64          `json:"config_id,omitempty"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	MinHours          decimal.Decimal `json:"min_hours"`
	OvertimeRate      decimal.Decimal `json:"overtime_rate"`
	HolidayMultiplier decimal.Decimal `json:"holiday_multiplier"`
	WeekendMultiplier decimal.Decimal `json:"weekend_multiplier"`
}

// ResolveFee returns the schedule in force for areaID at asOf, falling back
// to the configured default when the area has none.
func (s *VenueService) ResolveFee(ctx context.Context, areaID uint64, asOf time.Time) (FeeRule, error) {
	cfg, err := s.resources.GetFeeConfig(ctx, areaID, asOf)
	if err != nil {
		return FeeRule{}, err
	}
	if cfg == nil || !cfg.AppliesAt(asOf) {
		d := s.cfg.DefaultFee
		return FeeRule{
			HourlyRate:        d.HourlyRate,
			MinHours:          d.MinHours,
			OvertimeRate:      d.OvertimeRate,
			HolidayMultiplier: d.HolidayMultiplier,
			WeekendMultiplier: d.WeekendMultiplier,
		}, nil
	}
	return FeeRule{
		ConfigID:          cfg.ID,
		HourlyRate:        cfg.HourlyRate,
		MinHours:          cfg.MinHours,
		OvertimeRate:      cfg.OvertimeRate,
		HolidayMultiplier: cfg.HolidayMultiplier,
		WeekendMultiplier: cfg.WeekendMultiplier,
	}, nil
}
