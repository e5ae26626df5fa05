package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AreaKind tags the capability extension an area carries.
type AreaKind string

const (
	AreaKindEvent   AreaKind = "EVENT"
	AreaKindRetail  AreaKind = "RETAIL"
	AreaKindParking AreaKind = "PARKING"
)

// AreaExtension is the kind-specific part of an area.  The set of
// implementations is closed; see DecodeAreaExtension.
type AreaExtension interface {
	Kind() AreaKind
	isAreaExtension()
}

// EventAreaExt describes an area that can host venue events.
type EventAreaExt struct {
	Capacity int             `json:"capacity"`
	AreaFee  decimal.Decimal `json:"area_fee"`
}

// RetailAreaExt describes a leasable shop unit.
type RetailAreaExt struct {
	StoreStatus string          `json:"store_status"`
	BaseRent    decimal.Decimal `json:"base_rent"`
}

// ParkingAreaExt describes a parking section.
type ParkingAreaExt struct {
	ParkingFee decimal.Decimal `json:"parking_fee"`
	Spaces     int             `json:"spaces"`
}

func (EventAreaExt) Kind() AreaKind   { return AreaKindEvent }
func (RetailAreaExt) Kind() AreaKind  { return AreaKindRetail }
func (ParkingAreaExt) Kind() AreaKind { return AreaKindParking }

func (EventAreaExt) isAreaExtension()   {}
func (RetailAreaExt) isAreaExtension()  {}
func (ParkingAreaExt) isAreaExtension() {}

// DecodeAreaExtension parses the stored payload of an area of the given kind.
// Unknown kinds are rejected.
func DecodeAreaExtension(kind AreaKind, raw []byte) (AreaExtension, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch kind {
	case AreaKindEvent:
		var ext EventAreaExt
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, fmt.Errorf("decode %s extension: %w", kind, err)
		}
		if ext.Capacity < 0 {
			return nil, fmt.Errorf("decode %s extension: negative capacity", kind)
		}
		return ext, nil
	case AreaKindRetail:
		var ext RetailAreaExt
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, fmt.Errorf("decode %s extension: %w", kind, err)
		}
		return ext, nil
	case AreaKindParking:
		var ext ParkingAreaExt
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, fmt.Errorf("decode %s extension: %w", kind, err)
		}
		return ext, nil
	default:
		return nil, fmt.Errorf("unknown area kind %q", kind)
	}
}

// Area is a bookable or leasable physical unit of the mall.
type Area struct {
	ID     uint64        `json:"area_id"`
	Name   string        `json:"name"`
	Kind   AreaKind      `json:"kind"`
	Active bool          `json:"active"`
	Ext    AreaExtension `json:"extension"`
}

// EventCapacity returns the capacity declared by an event-area extension.
// The second result is false for other kinds or when no cap is declared.
func (a Area) EventCapacity() (int, bool) {
	ext, ok := a.Ext.(EventAreaExt)
	if !ok || ext.Capacity == 0 {
		return 0, false
	}
	return ext.Capacity, true
}

// Collaboration is a sponsor backing venue events.
type Collaboration struct {
	ID     uint64 `db:"id" json:"collaboration_id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"is_active" json:"active"`
}

// FeeConfig is one rate schedule for an area.  Several may exist; the one
// with the latest EffectiveDate that is active and unexpired applies.
type FeeConfig struct {
	ID                uint64          `db:"id" json:"config_id"`
	AreaID            uint64          `db:"area_id" json:"area_id"`
	HourlyRate        decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	MinHours          decimal.Decimal `db:"min_hours" json:"min_hours"`
	OvertimeRate      decimal.Decimal `db:"overtime_rate" json:"overtime_rate"`
	HolidayMultiplier decimal.Decimal `db:"holiday_multiplier" json:"holiday_multiplier"`
	WeekendMultiplier decimal.Decimal `db:"weekend_multiplier" json:"weekend_multiplier"`
	EffectiveDate     time.Time       `db:"effective_date" json:"effective_date"`
	ExpiryDate        *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	Active            bool            `db:"is_active" json:"active"`
}

// AppliesAt reports whether the config is in force at t.
func (f FeeConfig) AppliesAt(t time.Time) bool {
	if !f.Active || f.EffectiveDate.After(t) {
		return false
	}
	return f.ExpiryDate == nil || f.ExpiryDate.After(t)
}

// BillingUnit is how an add-on service is priced.
type BillingUnit string

const (
	UnitFixed     BillingUnit = "FIXED"
	UnitHourly    BillingUnit = "HOURLY"
	UnitPerPerson BillingUnit = "PER_PERSON"
)

// Valid reports whether u is a known unit.
func (u BillingUnit) Valid() bool {
	return u == UnitFixed || u == UnitHourly || u == UnitPerPerson
}

// AdditionalService is a catalog entry that can be added to a billing.
type AdditionalService struct {
	ID          uint64          `db:"id" json:"service_id"`
	Name        string          `db:"name" json:"service_name"`
	Fee         decimal.Decimal `db:"fee" json:"service_fee"`
	Unit        BillingUnit     `db:"billing_unit" json:"billing_unit"`
	Description string          `db:"description" json:"description,omitempty"`
	Active      bool            `db:"is_active" json:"active"`
}
