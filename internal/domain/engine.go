package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/davidbz/quotekit/internal/observability"
)

// PricingEngine prices line items against the catalog.
type PricingEngine struct {
	catalog CatalogIndex
}

// NewPricingEngine creates a new pricing engine (DI constructor).
func NewPricingEngine(catalog CatalogIndex) *PricingEngine {
	return &PricingEngine{
		catalog: catalog,
	}
}

// PriceLine runs resolve, discount and estimate for one line item.
// A catalog miss yields an unpriced line, not an error.
func (e *PricingEngine) PriceLine(ctx context.Context, item QuoteLineItem, orderDiscount float64) (QuoteLine, error) {
	pct := EffectiveDiscount(item.DiscountPercent, orderDiscount)
	if err := ValidateDiscount(pct); err != nil {
		return QuoteLine{}, err
	}

	line := QuoteLine{
		ItemID:     item.ID,
		ModelCode:  item.ModelCode,
		ModelName:  item.ModelCode,
		VariantID:  item.VariantID,
		Mode:       "",
		TokenTier:  "",
		Resolution: "",
		Remark:     "",
		Category:   ClassifyCode(item.ModelCode),
		Priced:     false,
		Price: DiscountedPrice{
			NormalizedPrice: NormalizedPrice{Kind: PriceKindNone},
			DiscountPercent: pct,
		},
		DailyUsage: item.DailyUsage,
		Monthly:    decimal.NullDecimal{},
	}

	if model, err := e.catalog.Model(ctx, item.ModelCode); err == nil {
		line.ModelName = model.Name
		line.Category = Classify(model)
	} else if !errors.Is(err, ErrNotFound) {
		return QuoteLine{}, fmt.Errorf("failed to look up model: %w", err)
	}

	variant, err := e.catalog.Variant(ctx, item.VariantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			observability.FromContext(ctx).Warn("variant missing from catalog, line left unpriced",
				observability.String("model_code", item.ModelCode),
				observability.String("variant_id", item.VariantID))
			return line, nil
		}
		return QuoteLine{}, fmt.Errorf("failed to look up variant: %w", err)
	}

	if variant.ModelName != "" && line.ModelName == item.ModelCode {
		line.ModelName = variant.ModelName
	}
	line.Mode = variant.Mode
	line.TokenTier = variant.TokenTier
	line.Resolution = variant.Resolution
	line.Remark = variant.Remark

	discounted, err := ApplyDiscount(Resolve(variant), pct)
	if err != nil {
		return QuoteLine{}, err
	}
	line.Price = discounted
	line.Priced = discounted.Kind != PriceKindNone
	line.Monthly = EstimateMonthly(discounted, item.DailyUsage)

	return line, nil
}

// BuildDocument prices every line of the quote and aggregates them.
func (e *PricingEngine) BuildDocument(ctx context.Context, quote *Quote) (*QuoteDocument, error) {
	if quote == nil || len(quote.LineItems) == 0 {
		return nil, ErrEmptyQuote
	}

	lines := make([]QuoteLine, 0, len(quote.LineItems))
	for _, item := range quote.LineItems {
		line, err := e.PriceLine(ctx, item, quote.DiscountPercent)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", item.ID, err)
		}
		lines = append(lines, line)
	}

	return Aggregate(quote.Header(), lines)
}
