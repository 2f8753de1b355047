package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/domain"
)

func dim(code domain.DimensionCode, price, unit string) domain.PriceDimension {
	return domain.PriceDimension{Code: code, UnitPrice: decimal.RequireFromString(price), Unit: unit}
}

func ptr(v float64) *float64 { return &v }

// testCatalog loads a small catalog covering token, non-token and unpriced variants.
func testCatalog(t *testing.T) *domain.InMemoryCatalog {
	t.Helper()

	catalog := domain.NewInMemoryCatalog()
	err := catalog.Load(context.Background(), []domain.CatalogEntry{
		{
			Model: domain.Model{Code: "qwen-plus", Name: "通义千问-Plus", Category: "text_qwen"},
			Variants: []domain.Variant{
				{
					ID:        "qwen-plus-std",
					Mode:      "标准",
					TokenTier: "0-128K",
					Dimensions: []domain.PriceDimension{
						dim(domain.DimensionInputToken, "0.004", "元/千Token"),
						dim(domain.DimensionOutputToken, "0.012", "元/千Token"),
					},
				},
				{
					ID:   "qwen-plus-batch",
					Mode: "批量",
					Dimensions: []domain.PriceDimension{
						dim(domain.DimensionInputToken, "2", "元/百万Token"),
						dim(domain.DimensionOutputToken, "6", "元/百万Token"),
					},
				},
			},
		},
		{
			Model: domain.Model{Code: "wanx-v1", Name: "通义万相", Category: "image_gen"},
			Variants: []domain.Variant{
				{
					ID:         "wanx-v1-1024",
					Resolution: "1024*1024",
					Dimensions: []domain.PriceDimension{dim(domain.DimensionImageCount, "0.14", "元/张")},
				},
			},
		},
		{
			Model: domain.Model{Code: "mystery", Name: "Mystery", Category: ""},
			Variants: []domain.Variant{
				{ID: "mystery-free"},
			},
		},
		{
			Model:    domain.Model{Code: "empty-model", Name: "Empty", Category: "industry"},
			Variants: nil,
		},
	})
	require.NoError(t, err)

	return catalog
}

// fakeSink records submitted documents and can be told to fail.
type fakeSink struct {
	mu        sync.Mutex
	err       error
	submitted []*domain.QuoteDocument
}

func (f *fakeSink) Submit(_ context.Context, doc *domain.QuoteDocument) (*domain.ExportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, doc)
	return &domain.ExportResult{Success: true, Filename: "报价单_test.xlsx"}, nil
}

var errSinkDown = errors.New("disk full")

// fakeAssistant returns scripted responses.
type fakeAssistant struct {
	responses []*domain.AssistantResponse
	err       error
	requests  []*domain.AssistantRequest
}

func (f *fakeAssistant) Reply(_ context.Context, req *domain.AssistantRequest) (*domain.AssistantResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &domain.AssistantResponse{Reply: "好的", Actions: nil}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC) }
}
