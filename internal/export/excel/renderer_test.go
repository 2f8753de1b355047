package excel_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/export/excel"
)

func sampleDocument(t *testing.T) *domain.QuoteDocument {
	t.Helper()

	usage := 1000.0
	tokenPrice, err := domain.ApplyDiscount(domain.Resolve(domain.Variant{Dimensions: []domain.PriceDimension{
		{Code: domain.DimensionInputToken, UnitPrice: decimal.RequireFromString("0.004")},
		{Code: domain.DimensionOutputToken, UnitPrice: decimal.RequireFromString("0.012")},
	}}), 10)
	require.NoError(t, err)

	imagePrice, err := domain.ApplyDiscount(domain.Resolve(domain.Variant{Dimensions: []domain.PriceDimension{
		{Code: domain.DimensionImageCount, UnitPrice: decimal.RequireFromString("0.14")},
	}}), 0)
	require.NoError(t, err)

	doc, err := domain.Aggregate(domain.DocumentHeader{
		CustomerName:    "ACME",
		QuoteDate:       "2025-01-31",
		ValidUntil:      "2025-03-03",
		DiscountPercent: 10,
	}, []domain.QuoteLine{
		{
			ItemID:    "img",
			ModelName: "通义万相",
			Category:  domain.Category{Code: "image_gen", Source: domain.CategoryKnown},
			Priced:    true,
			Price:     imagePrice,
		},
		{
			ItemID:     "txt",
			ModelName:  "通义千问-Plus",
			Mode:       "非思考模式",
			Category:   domain.Category{Code: "text_qwen", Source: domain.CategoryKnown},
			Priced:     true,
			Price:      tokenPrice,
			DailyUsage: &usage,
			Monthly:    domain.EstimateMonthly(tokenPrice, &usage),
		},
	})
	require.NoError(t, err)

	return doc
}

func TestRenderer_Layout(t *testing.T) {
	data, err := excel.NewRenderer().Render(sampleDocument(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	get := func(axis string) string {
		v, getErr := f.GetCellValue(excel.SheetName, axis)
		require.NoError(t, getErr)
		return v
	}

	require.Equal(t, "阿里云大模型产品报价清单", get("A1"))
	require.Equal(t, "ACME", get("B3"))
	require.Equal(t, "2025-03-03", get("H3"))
	require.Equal(t, "序号", get("A5"))
	require.Equal(t, "预估月费", get("I5"))

	// Text group comes first regardless of line order.
	require.Equal(t, "💬 文本生成-通义千问", get("A6"))
	require.Equal(t, "通义千问-Plus", get("B7"))
	require.Equal(t, "¥0.0036/千Token", get("E7"))
	require.Equal(t, "¥0.0108/千Token", get("F7"))
	require.Equal(t, "9.0折", get("G7"))
	require.Equal(t, "¥432.00", get("I7"))

	require.Equal(t, "🎨 图像生成", get("A8"))
	require.Equal(t, "¥0.14/张", get("E9"))
	require.Equal(t, "-", get("F9"))
	require.Equal(t, "无折扣", get("G9"))

	require.Equal(t, "合计", get("H10"))
	require.Equal(t, "¥432.00", get("I10"))
	require.Equal(t, "报价说明：", get("A13"))
	require.Equal(t, "• 本报价单默认折扣: 9.0折", get("A17"))
}

func TestRenderer_Metadata(t *testing.T) {
	r := excel.NewRenderer()
	require.Equal(t, ".xlsx", r.Extension())
	require.Contains(t, r.ContentType(), "spreadsheetml")
}
