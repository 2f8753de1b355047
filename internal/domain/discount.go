package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	maxDiscount         = 100
	discountPricePlaces = 4
)

// DiscountPresets are the quick-pick order discounts.
//
//nolint:gochecknoglobals // Static preset list
var DiscountPresets = []float64{0, 5, 10, 15, 20, 30}

// DiscountedPrice is a NormalizedPrice after applying a discount.
type DiscountedPrice struct {
	NormalizedPrice

	DiscountPercent float64 `json:"discount_percent"`
}

// ValidateDiscount rejects percentages outside [0, 100].
func ValidateDiscount(pct float64) error {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 || pct > maxDiscount {
		return fmt.Errorf("discount %v: %w", pct, ErrInvalidDiscount)
	}
	return nil
}

// EffectiveDiscount returns the line override when present, else the order default.
func EffectiveDiscount(line *float64, order float64) float64 {
	if line != nil {
		return *line
	}
	return order
}

// ApplyDiscount scales every populated price by (100 - pct) / 100.
// Results are rounded to 4 dp, or to 6 dp for token prices converted from per-million.
func ApplyDiscount(price NormalizedPrice, pct float64) (DiscountedPrice, error) {
	if err := ValidateDiscount(pct); err != nil {
		return DiscountedPrice{}, err
	}

	rate := decimal.NewFromInt(maxDiscount).Sub(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(maxDiscount))
	discount := func(p decimal.NullDecimal, places int32) decimal.NullDecimal {
		if !p.Valid {
			return p
		}
		return decimal.NewNullDecimal(p.Decimal.Mul(rate).Round(places))
	}

	tokenPlaces := int32(discountPricePlaces)
	if price.FromPerMillion {
		tokenPlaces = tokenPricePlaces
	}

	out := price
	out.Input = discount(price.Input, tokenPlaces)
	out.Output = discount(price.Output, tokenPlaces)
	out.NonToken = discount(price.NonToken, discountPricePlaces)

	return DiscountedPrice{NormalizedPrice: out, DiscountPercent: pct}, nil
}

// DiscountLabel renders a discount the way quotes show it: 10 -> "9.0折", 0 -> "无折扣".
func DiscountLabel(pct float64) string {
	if pct == 0 {
		return "无折扣"
	}
	fold := decimal.NewFromInt(10).Sub(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(10)))
	return fold.StringFixed(1) + "折"
}
