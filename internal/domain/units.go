package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceUnit is the token unit prices are displayed in.
type PriceUnit string

// Display units.
const (
	PriceUnitThousand PriceUnit = "thousand"
	PriceUnitMillion  PriceUnit = "million"
)

const (
	millionPlaces  = 4
	thousandPlaces = 6
)

// Label returns the human readable unit.
func (u PriceUnit) Label() string {
	if u == PriceUnitMillion {
		return "百万Token"
	}
	return TokenUnit
}

// Validate checks the unit is a known value. Empty means thousand.
func (u PriceUnit) Validate() error {
	switch u {
	case "", PriceUnitThousand, PriceUnitMillion:
		return nil
	default:
		return fmt.Errorf("unknown price unit %q: %w", string(u), ErrInvalidCustomer)
	}
}

// ToMillionToken converts a per-thousand price to per-million.
func ToMillionToken(perThousand decimal.Decimal) decimal.Decimal {
	return perThousand.Mul(decimal.NewFromInt(perMillionToThousand)).Round(millionPlaces)
}

// ToThousandToken converts a per-million price to per-thousand.
func ToThousandToken(perMillion decimal.Decimal) decimal.Decimal {
	return perMillion.Div(decimal.NewFromInt(perMillionToThousand)).Round(thousandPlaces)
}

// DisplayTokenPrice converts a per-thousand price to the requested unit.
func DisplayTokenPrice(p decimal.NullDecimal, unit PriceUnit) decimal.NullDecimal {
	if !p.Valid || unit != PriceUnitMillion {
		return p
	}
	return decimal.NewNullDecimal(ToMillionToken(p.Decimal))
}
