package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the month length used for estimates.
const DaysPerMonth = 30

const monthlyPlaces = 2

// ValidateUsage rejects negative or non-finite daily usage.
func ValidateUsage(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("daily usage %v: %w", v, ErrInvalidUsage)
	}
	return nil
}

// EstimateMonthly returns the monthly cost of a line, or null when it cannot be estimated.
// Token prices are summed as rates: usage * (input + output) * 30.
func EstimateMonthly(price DiscountedPrice, dailyUsage *float64) decimal.NullDecimal {
	if dailyUsage == nil || *dailyUsage <= 0 || math.IsNaN(*dailyUsage) || math.IsInf(*dailyUsage, 0) {
		return decimal.NullDecimal{}
	}

	var unit decimal.Decimal
	switch price.Kind {
	case PriceKindToken:
		if price.Input.Valid {
			unit = unit.Add(price.Input.Decimal)
		}
		if price.Output.Valid {
			unit = unit.Add(price.Output.Decimal)
		}
	case PriceKindNonToken:
		if !price.NonToken.Valid {
			return decimal.NullDecimal{}
		}
		unit = price.NonToken.Decimal
	default:
		return decimal.NullDecimal{}
	}

	monthly := decimal.NewFromFloat(*dailyUsage).Mul(unit).Mul(decimal.NewFromInt(DaysPerMonth))
	return decimal.NewNullDecimal(monthly.Round(monthlyPlaces))
}
