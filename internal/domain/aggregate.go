package domain

import (
	"github.com/shopspring/decimal"
)

// QuoteLine is one fully priced line item.
type QuoteLine struct {
	ItemID     string              `json:"item_id"`
	ModelCode  string              `json:"model_code"`
	ModelName  string              `json:"model_name"`
	VariantID  string              `json:"variant_id"`
	Mode       string              `json:"mode,omitempty"`
	TokenTier  string              `json:"token_tier,omitempty"`
	Resolution string              `json:"resolution,omitempty"`
	Remark     string              `json:"remark,omitempty"`
	Category   Category            `json:"category"`
	Priced     bool                `json:"priced"`
	Price      DiscountedPrice     `json:"price"`
	DailyUsage *float64            `json:"daily_usage,omitempty"`
	Monthly    decimal.NullDecimal `json:"monthly_estimate"`
}

// DocumentHeader carries the customer fields of an exported quote.
type DocumentHeader struct {
	CustomerName    string    `json:"customer_name"`
	QuoteDate       string    `json:"quote_date"`
	ValidUntil      string    `json:"valid_until"`
	DiscountPercent float64   `json:"discount_percent"`
	PriceUnit       PriceUnit `json:"price_unit"`
}

// DocumentLine is a QuoteLine with prices converted for display.
type DocumentLine struct {
	QuoteLine

	Seq           int                 `json:"seq"`
	InputDisplay  decimal.NullDecimal `json:"input_display"`
	OutputDisplay decimal.NullDecimal `json:"output_display"`
	UnitLabel     string              `json:"unit_label"`
	DiscountLabel string              `json:"discount_label"`
}

// QuoteGroup is the set of lines of one category.
type QuoteGroup struct {
	Category CategoryInfo    `json:"category"`
	Lines    []DocumentLine  `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// QuoteDocument is the render-ready quote.
type QuoteDocument struct {
	Header       DocumentHeader  `json:"header"`
	Groups       []QuoteGroup    `json:"groups"`
	LineCount    int             `json:"line_count"`
	TotalMonthly decimal.Decimal `json:"total_monthly"`
}

// Aggregate groups priced lines by category in the fixed category order.
// Lines keep their relative order inside a group. The result depends only on the inputs.
func Aggregate(header DocumentHeader, lines []QuoteLine) (*QuoteDocument, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyQuote
	}
	if header.PriceUnit == "" {
		header.PriceUnit = PriceUnitThousand
	}

	buckets := make(map[string][]QuoteLine)
	for _, line := range lines {
		key := line.Category.groupKey()
		if _, known := LookupCategory(key); !known {
			key = UncategorizedKey
		}
		buckets[key] = append(buckets[key], line)
	}

	order := make([]CategoryInfo, 0, len(categoryTable)+1)
	order = append(order, categoryTable...)
	order = append(order, uncategorizedInfo)

	doc := &QuoteDocument{
		Header:       header,
		Groups:       make([]QuoteGroup, 0, len(buckets)),
		LineCount:    len(lines),
		TotalMonthly: decimal.Zero,
	}

	seq := 0
	for _, info := range order {
		bucket, ok := buckets[info.Key]
		if !ok {
			continue
		}

		group := QuoteGroup{
			Category: info,
			Lines:    make([]DocumentLine, 0, len(bucket)),
			Subtotal: decimal.Zero,
		}
		for _, line := range bucket {
			seq++
			group.Lines = append(group.Lines, displayLine(seq, line, header.PriceUnit))
			if line.Monthly.Valid {
				group.Subtotal = group.Subtotal.Add(line.Monthly.Decimal)
			}
		}

		doc.TotalMonthly = doc.TotalMonthly.Add(group.Subtotal)
		doc.Groups = append(doc.Groups, group)
	}

	return doc, nil
}

func displayLine(seq int, line QuoteLine, unit PriceUnit) DocumentLine {
	out := DocumentLine{
		QuoteLine:     line,
		Seq:           seq,
		InputDisplay:  decimal.NullDecimal{},
		OutputDisplay: decimal.NullDecimal{},
		UnitLabel:     line.Price.Unit,
		DiscountLabel: DiscountLabel(line.Price.DiscountPercent),
	}

	if line.Price.Kind == PriceKindToken {
		out.InputDisplay = DisplayTokenPrice(line.Price.Input, unit)
		out.OutputDisplay = DisplayTokenPrice(line.Price.Output, unit)
		out.UnitLabel = unit.Label()
	}

	return out
}
