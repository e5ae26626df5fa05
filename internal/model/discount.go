package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Discount is a promotional rule applied to an amount due.  Implementations
// are FullReduction and PercentDiscount only.
type Discount interface {
	// Apply returns the payable amount for total, never below zero.
	Apply(total decimal.Decimal) decimal.Decimal
	Tag() string
	isDiscount()
}

const (
	DiscountFullReduction = "FULL_REDUCTION"
	DiscountPercent       = "PERCENT"
)

// FullReduction subtracts Amount once the total reaches Threshold.
type FullReduction struct {
	Threshold decimal.Decimal `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
}

// PercentDiscount multiplies the total by Factor, 0 < Factor <= 1.
type PercentDiscount struct {
	Factor decimal.Decimal `json:"factor"`
}

func (FullReduction) isDiscount()   {}
func (PercentDiscount) isDiscount() {}

func (FullReduction) Tag() string   { return DiscountFullReduction }
func (PercentDiscount) Tag() string { return DiscountPercent }

func (d FullReduction) Apply(total decimal.Decimal) decimal.Decimal {
	if total.LessThan(d.Threshold) {
		return total
	}
	out := total.Sub(d.Amount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

func (d PercentDiscount) Apply(total decimal.Decimal) decimal.Decimal {
	return total.Mul(d.Factor).Round(2)
}

// ErrUnknownDiscount is returned for a rule whose type tag is not recognised.
var ErrUnknownDiscount = errors.New("unknown discount type")

// ParseDiscount decodes a tagged rule such as
// {"type":"PERCENT","factor":"0.9"}.
func ParseDiscount(raw []byte) (Discount, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode discount: %w", err)
	}
	switch head.Type {
	case DiscountFullReduction:
		var d FullReduction
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode discount: %w", err)
		}
		if d.Threshold.IsNegative() || !d.Amount.IsPositive() {
			return nil, fmt.Errorf("full reduction needs threshold >= 0 and amount > 0")
		}
		return d, nil
	case DiscountPercent:
		var d PercentDiscount
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode discount: %w", err)
		}
		if !d.Factor.IsPositive() || d.Factor.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("percent discount factor must be in (0, 1]")
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDiscount, head.Type)
	}
}
