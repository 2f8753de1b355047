package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceKind tags which fields of a NormalizedPrice are populated.
type PriceKind string

// Price kinds.
const (
	PriceKindToken    PriceKind = "token"
	PriceKindNonToken PriceKind = "non_token"
	PriceKindNone     PriceKind = "none"
)

// TokenUnit is the unit of every normalized token price.
const TokenUnit = "千Token"

const (
	perMillionToThousand = 1000
	tokenPricePlaces     = 6
)

// NormalizedPrice is the single price shape downstream components consume.
// Input and Output are per thousand tokens. FromPerMillion marks token prices
// converted from a per-million unit; they keep tokenPricePlaces decimals.
type NormalizedPrice struct {
	Kind           PriceKind           `json:"kind"`
	Input          decimal.NullDecimal `json:"input_price"`
	Output         decimal.NullDecimal `json:"output_price"`
	NonToken       decimal.NullDecimal `json:"non_token_price"`
	Unit           string              `json:"unit"`
	DimensionCode  DimensionCode       `json:"dimension_code,omitempty"`
	FromPerMillion bool                `json:"from_per_million,omitempty"`
}

//nolint:gochecknoglobals // Static dimension tables
var (
	inputDimensions = map[DimensionCode]struct{}{
		DimensionInput:           {},
		DimensionInputToken:      {},
		DimensionThinkingInput:   {},
		DimensionInputTokenImage: {},
	}
	outputDimensions = map[DimensionCode]struct{}{
		DimensionOutput:              {},
		DimensionOutputToken:         {},
		DimensionThinkingOutput:      {},
		DimensionOutputTokenThinking: {},
	}
	nonTokenUnits = map[DimensionCode]string{
		DimensionCharacter:   "字符",
		DimensionAudioSecond: "秒",
		DimensionVideoSecond: "秒",
		DimensionImageCount:  "张",
	}
)

const defaultNonTokenUnit = "次"

// NonTokenUnit returns the display unit of a non-token dimension.
func NonTokenUnit(code DimensionCode) string {
	if unit, ok := nonTokenUnits[code]; ok {
		return unit
	}
	return defaultNonTokenUnit
}

// Resolve classifies a variant's dimensions into a NormalizedPrice.
// The first matching dimension of each side wins.
func Resolve(v Variant) NormalizedPrice {
	price := NormalizedPrice{
		Kind:           PriceKindNone,
		Input:          decimal.NullDecimal{},
		Output:         decimal.NullDecimal{},
		NonToken:       decimal.NullDecimal{},
		Unit:           "",
		DimensionCode:  "",
		FromPerMillion: false,
	}

	var firstNonToken *PriceDimension
	for i := range v.Dimensions {
		d := &v.Dimensions[i]
		switch {
		case isInput(d.Code):
			if !price.Input.Valid {
				price.Input = decimal.NewNullDecimal(perThousand(d))
				price.FromPerMillion = price.FromPerMillion || isPerMillionUnit(d.Unit)
			}
		case isOutput(d.Code):
			if !price.Output.Valid {
				price.Output = decimal.NewNullDecimal(perThousand(d))
				price.FromPerMillion = price.FromPerMillion || isPerMillionUnit(d.Unit)
			}
		default:
			if firstNonToken == nil {
				firstNonToken = d
			}
		}
	}

	if price.Input.Valid || price.Output.Valid {
		price.Kind = PriceKindToken
		price.Unit = TokenUnit
		return price
	}

	if firstNonToken != nil {
		price.Kind = PriceKindNonToken
		price.NonToken = decimal.NewNullDecimal(firstNonToken.UnitPrice)
		price.Unit = NonTokenUnit(firstNonToken.Code)
		price.DimensionCode = firstNonToken.Code
	}

	return price
}

func isInput(code DimensionCode) bool {
	_, ok := inputDimensions[code]
	return ok
}

func isOutput(code DimensionCode) bool {
	_, ok := outputDimensions[code]
	return ok
}

// perThousand normalizes a token dimension to a per-thousand-token price.
func perThousand(d *PriceDimension) decimal.Decimal {
	if isPerMillionUnit(d.Unit) {
		return d.UnitPrice.Div(decimal.NewFromInt(perMillionToThousand)).Round(tokenPricePlaces)
	}
	return d.UnitPrice
}

func isPerMillionUnit(unit string) bool {
	if strings.Contains(unit, "百万") {
		return true
	}
	lower := strings.ToLower(unit)
	return strings.Contains(lower, "1m") || strings.Contains(lower, "million")
}
