package domain_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/domain"
)

func TestEstimateMonthly_NullUsage(t *testing.T) {
	prices := []domain.DiscountedPrice{
		{NormalizedPrice: tokenPrice("0.004", "0.012")},
		{NormalizedPrice: domain.NormalizedPrice{
			Kind:     domain.PriceKindNonToken,
			NonToken: decimal.NewNullDecimal(decimal.RequireFromString("0.14")),
		}},
		{NormalizedPrice: domain.NormalizedPrice{Kind: domain.PriceKindNone}},
	}

	for _, p := range prices {
		for _, usage := range []*float64{nil, ptr(0), ptr(-1), ptr(-0.0001)} {
			require.False(t, domain.EstimateMonthly(p, usage).Valid)
		}
	}
}

func TestEstimateMonthly_NoPrice(t *testing.T) {
	got := domain.EstimateMonthly(domain.DiscountedPrice{NormalizedPrice: domain.NormalizedPrice{Kind: domain.PriceKindNone}}, ptr(100))
	require.False(t, got.Valid)
}

func TestEstimateMonthly_MissingTokenSideCountsAsZero(t *testing.T) {
	price := domain.DiscountedPrice{NormalizedPrice: domain.NormalizedPrice{
		Kind:  domain.PriceKindToken,
		Input: decimal.NewNullDecimal(decimal.RequireFromString("0.0005")),
	}}

	got := domain.EstimateMonthly(price, ptr(2000))
	require.True(t, got.Valid)
	require.Equal(t, "30.00", got.Decimal.StringFixed(2))
}

func TestEstimateMonthly_Rounding(t *testing.T) {
	price := domain.DiscountedPrice{NormalizedPrice: tokenPrice("0.0001", "0.0002")}

	got := domain.EstimateMonthly(price, ptr(1))
	require.True(t, got.Valid)
	require.Equal(t, "0.01", got.Decimal.StringFixed(2))
}

func TestValidateUsage(t *testing.T) {
	require.NoError(t, domain.ValidateUsage(0))
	require.NoError(t, domain.ValidateUsage(1e9))
	for _, v := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		require.ErrorIs(t, domain.ValidateUsage(v), domain.ErrInvalidUsage)
	}
}

func TestScenarioA_TextModelNoDiscount(t *testing.T) {
	price, err := domain.ApplyDiscount(tokenPrice("0.004", "0.012"), 0)
	require.NoError(t, err)

	monthly := domain.EstimateMonthly(price, ptr(1000))
	require.True(t, monthly.Valid)
	require.Equal(t, "480.00", monthly.Decimal.StringFixed(2))
}

func TestScenarioB_OrderDiscount(t *testing.T) {
	price, err := domain.ApplyDiscount(tokenPrice("0.004", "0.012"), domain.EffectiveDiscount(nil, 10))
	require.NoError(t, err)
	require.Equal(t, "0.0036", price.Input.Decimal.String())
	require.Equal(t, "0.0108", price.Output.Decimal.String())

	monthly := domain.EstimateMonthly(price, ptr(1000))
	require.Equal(t, "432.00", monthly.Decimal.StringFixed(2))
}

func TestScenarioC_ImageModel(t *testing.T) {
	resolved := domain.Resolve(domain.Variant{Dimensions: []domain.PriceDimension{
		dim(domain.DimensionImageCount, "0.14", "元/张"),
	}})
	price, err := domain.ApplyDiscount(resolved, 0)
	require.NoError(t, err)

	monthly := domain.EstimateMonthly(price, ptr(500))
	require.Equal(t, "2100.00", monthly.Decimal.StringFixed(2))
}

func TestLineOverrideBeatsOrderDiscount(t *testing.T) {
	pct := domain.EffectiveDiscount(ptr(20), 10)
	require.InDelta(t, 20.0, pct, 0)

	price, err := domain.ApplyDiscount(tokenPrice("0.01", "0.01"), pct)
	require.NoError(t, err)
	require.Equal(t, "0.008", price.Input.Decimal.String())
}
