package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/assistant/openai"
	"github.com/davidbz/quotekit/internal/catalog/file"
	"github.com/davidbz/quotekit/internal/config"
	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/export"
	"github.com/davidbz/quotekit/internal/httpserver"
	"github.com/davidbz/quotekit/internal/httpserver/middleware"
	"github.com/davidbz/quotekit/internal/mocks"
	"github.com/davidbz/quotekit/internal/observability"
	"github.com/davidbz/quotekit/internal/session/memory"
)

const catalogYAML = `
models:
  - code: qwen-plus
    name: 通义千问-Plus
    category: text_qwen
    variants:
      - id: qwen-plus-std
        mode: 标准
        token_tier: 0-128K
        prices:
          - {dimension: input_token, price: "0.004", unit: 元/千Token}
          - {dimension: output_token, price: "0.012", unit: 元/千Token}
  - code: wanx-v1
    name: 通义万相
    category: image_gen
    variants:
      - id: wanx-v1-1024
        resolution: 1024*1024
        prices:
          - {dimension: image_count, price: "0.14", unit: 元/张}
`

type staticSource struct {
	entries []domain.CatalogEntry
	err     error
}

func (s *staticSource) Fetch(context.Context) ([]domain.CatalogEntry, error) {
	return s.entries, s.err
}

type stubFiles struct {
	dir string
}

func (f stubFiles) Open(filename string) (string, string, error) {
	if filename != "quote.xlsx" {
		return "", "", export.ErrFileNotFound
	}
	return filepath.Join(f.dir, filename), "application/octet-stream", nil
}

type testEnv struct {
	handler   http.Handler
	sink      *mocks.MockExportSink
	assistant *mocks.MockAssistant
	source    *staticSource
	filesDir  string
}

func newTestEnv(t *testing.T, assistant domain.Assistant) *testEnv {
	t.Helper()
	ctx := context.Background()

	entries, err := file.Parse([]byte(catalogYAML))
	require.NoError(t, err)

	catalog := domain.NewInMemoryCatalog()
	require.NoError(t, catalog.Load(ctx, entries))

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	require.NoError(t, err)

	sink := mocks.NewMockExportSink(t)
	mockAssistant, _ := assistant.(*mocks.MockAssistant)

	store := memory.NewStore()
	quotes := domain.NewQuoteService(store, catalog, domain.NewPricingEngine(catalog), sink,
		observability.NewEventBus(false), metrics, domain.QuoteServiceConfig{SessionTTL: time.Hour})
	chat := domain.NewChatService(quotes, catalog, assistant, store, metrics,
		domain.ChatServiceConfig{SessionTTL: time.Hour, HistoryLimit: 10})

	source := &staticSource{entries: entries, err: nil}
	filesDir := t.TempDir()

	handler := httpserver.NewHandler(quotes, chat, catalog, source, stubFiles{dir: filesDir})
	server := httpserver.NewServer(
		&config.ServerConfig{Port: 0, ReadTimeout: 5, WriteTimeout: 5},
		handler,
		middleware.BuildMiddlewareChain(nil, metrics),
		registry,
	)

	return &testEnv{
		handler:   server.Routes(),
		sink:      sink,
		assistant: mockAssistant,
		source:    source,
		filesDir:  filesDir,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func createQuote(t *testing.T, env *testEnv) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/v1/quotes", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	wizard := decodeBody[domain.Wizard](t, rec)
	require.Equal(t, domain.StepSelectingModels, wizard.Step)
	require.NotEmpty(t, wizard.SessionID)

	return wizard.SessionID
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	rec := env.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHandleListModels(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	rec := env.do(t, http.MethodGet, "/v1/catalog/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	models := decodeBody[[]map[string]interface{}](t, rec)
	require.Len(t, models, 2)
	require.Equal(t, "qwen-plus", models[0]["code"])
	group, ok := models[0]["group"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "text_qwen", group["key"])
}

func TestHandleListVariants(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	rec := env.do(t, http.MethodGet, "/v1/catalog/models/qwen-plus/variants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	variants := decodeBody[[]domain.Variant](t, rec)
	require.Len(t, variants, 1)
	require.Equal(t, "qwen-plus-std", variants[0].ID)

	rec = env.do(t, http.MethodGet, "/v1/catalog/models/unknown/variants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleReloadCatalog(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	env.source.entries = env.source.entries[:1]
	rec := env.do(t, http.MethodPost, "/v1/catalog/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"models":1}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/catalog/models", nil)
	require.Len(t, decodeBody[[]map[string]interface{}](t, rec), 1)

	env.source.err = errors.New("database down")
	rec = env.do(t, http.MethodPost, "/v1/catalog/reload", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuoteWizardFlow(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})
	id := createQuote(t, env)
	base := "/v1/quotes/" + id

	rec := env.do(t, http.MethodPut, base+"/models", map[string]interface{}{
		"model_codes": []string{"qwen-plus", "wanx-v1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.StepConfiguringVariants, decodeBody[domain.Wizard](t, rec).Step)

	rec = env.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/items", map[string]interface{}{
		"model_code":  "qwen-plus",
		"variant_id":  "qwen-plus-std",
		"daily_usage": 1000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	wizard := decodeBody[domain.Wizard](t, rec)
	require.Len(t, wizard.Quote.LineItems, 1)
	require.Equal(t, domain.SourceWizard, wizard.Quote.LineItems[0].Source)
	itemID := wizard.Quote.LineItems[0].ID

	rec = env.do(t, http.MethodPatch, base+"/items/"+itemID, map[string]interface{}{
		"discount_percent": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, base+"/customer", map[string]interface{}{
		"name":        "ACME",
		"quote_date":  "2025-01-01",
		"valid_until": "2025-02-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody[domain.QuoteDocument](t, rec)
	require.Equal(t, 1, doc.LineCount)
	require.Equal(t, "ACME", doc.Header.CustomerName)
	// 1000 * (0.0036 + 0.0108) * 30
	require.Equal(t, "432", doc.TotalMonthly.String())

	rec = env.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.StepReviewingQuote, decodeBody[domain.Wizard](t, rec).Step)

	env.sink.EXPECT().
		Submit(mock.Anything, mock.AnythingOfType("*domain.QuoteDocument")).
		Return(&domain.ExportResult{Success: true, Filename: "报价单_ACME.xlsx"}, nil).
		Once()

	rec = env.do(t, http.MethodPost, base+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"filename":"报价单_ACME.xlsx"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wizard = decodeBody[domain.Wizard](t, rec)
	require.Equal(t, domain.StepExported, wizard.Step)
	require.Empty(t, wizard.Quote.LineItems)

	rec = env.do(t, http.MethodPost, base+"/items", map[string]interface{}{
		"model_code": "qwen-plus",
		"variant_id": "qwen-plus-std",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.StepSelectingModels, decodeBody[domain.Wizard](t, rec).Step)
}

func TestExportFailure_KeepsState(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})
	id := createQuote(t, env)
	base := "/v1/quotes/" + id

	rec := env.do(t, http.MethodPost, base+"/items", map[string]interface{}{
		"model_code": "wanx-v1",
		"variant_id": "wanx-v1-1024",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/next", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/next", nil).Code)

	env.sink.EXPECT().
		Submit(mock.Anything, mock.Anything).
		Return(nil, errors.New("disk full")).
		Once()

	rec = env.do(t, http.MethodPost, base+"/export", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, http.MethodGet, base, nil)
	wizard := decodeBody[domain.Wizard](t, rec)
	require.Equal(t, domain.StepReviewingQuote, wizard.Step)
	require.Len(t, wizard.Quote.LineItems, 1)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})
	id := createQuote(t, env)
	base := "/v1/quotes/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{
			name:   "unknown session",
			method: http.MethodGet,
			path:   "/v1/quotes/does-not-exist",
			status: http.StatusNotFound,
		},
		{
			name:   "unknown variant",
			method: http.MethodPost,
			path:   base + "/items",
			body:   map[string]interface{}{"model_code": "qwen-plus", "variant_id": "nope"},
			status: http.StatusNotFound,
		},
		{
			name:   "missing fields",
			method: http.MethodPost,
			path:   base + "/items",
			body:   map[string]interface{}{"model_code": "qwen-plus"},
			status: http.StatusBadRequest,
		},
		{
			name:   "discount out of range",
			method: http.MethodPost,
			path:   base + "/items",
			body: map[string]interface{}{
				"model_code": "qwen-plus", "variant_id": "qwen-plus-std", "discount_percent": 120,
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "negative usage",
			method: http.MethodPost,
			path:   base + "/items",
			body: map[string]interface{}{
				"model_code": "qwen-plus", "variant_id": "qwen-plus-std", "daily_usage": -1,
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "validity before quote date",
			method: http.MethodPut,
			path:   base + "/customer",
			body:   map[string]interface{}{"name": "ACME", "quote_date": "2025-02-01", "valid_until": "2025-01-01"},
			status: http.StatusBadRequest,
		},
		{
			name:   "next without selection",
			method: http.MethodPost,
			path:   base + "/next",
			status: http.StatusConflict,
		},
		{
			name:   "previous from first step",
			method: http.MethodPost,
			path:   base + "/previous",
			status: http.StatusConflict,
		},
		{
			name:   "preview of empty quote",
			method: http.MethodGet,
			path:   base + "/preview",
			status: http.StatusConflict,
		},
		{
			name:   "export of empty quote",
			method: http.MethodPost,
			path:   base + "/export",
			status: http.StatusConflict,
		},
		{
			name:   "remove unknown item",
			method: http.MethodDelete,
			path:   base + "/items/nope",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleAddLineItem_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})
	id := createQuote(t, env)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/"+id+"/items", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_AppliesActions(t *testing.T) {
	assistant := mocks.NewMockAssistant(t)
	env := newTestEnv(t, assistant)

	assistant.EXPECT().
		Reply(mock.Anything, mock.MatchedBy(func(req *domain.AssistantRequest) bool {
			return strings.Contains(req.SystemPrompt, "qwen-plus-std") && len(req.Messages) == 1
		})).
		Return(&domain.AssistantResponse{
			Reply: "已添加",
			Actions: []domain.AssistantAction{
				{Type: domain.ActionAddLineItem, ModelCode: "qwen-plus", VariantID: "qwen-plus-std"},
				{Type: domain.ActionShowSummary},
			},
		}, nil).
		Once()

	rec := env.do(t, http.MethodPost, "/v1/chat", map[string]interface{}{
		"session_id": "chat-1",
		"message":    "给我报 qwen-plus",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	reply := decodeBody[domain.ChatReply](t, rec)
	require.Equal(t, "chat-1", reply.SessionID)
	require.Equal(t, "已添加", reply.Reply)
	require.Len(t, reply.Actions, 2)
	require.True(t, reply.Actions[0].Applied)
	require.NotNil(t, reply.Summary)
	require.Equal(t, 1, reply.Summary.LineCount)

	rec = env.do(t, http.MethodGet, "/v1/quotes/chat-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wizard := decodeBody[domain.Wizard](t, rec)
	require.Len(t, wizard.Quote.LineItems, 1)
	require.Equal(t, domain.SourceChat, wizard.Quote.LineItems[0].Source)

	rec = env.do(t, http.MethodPost, "/v1/chat/chat-1/clear", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleChat_Errors(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	rec := env.do(t, http.MethodPost, "/v1/chat", map[string]interface{}{"message": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/chat", map[string]interface{}{"message": "hello"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assistant := mocks.NewMockAssistant(t)
	env = newTestEnv(t, assistant)
	assistant.EXPECT().
		Reply(mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream 500")).
		Once()

	rec = env.do(t, http.MethodPost, "/v1/chat", map[string]interface{}{"message": "hello"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleDownload(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})
	require.NoError(t, os.WriteFile(filepath.Join(env.filesDir, "quote.xlsx"), []byte("xlsx-bytes"), 0o600))

	rec := env.do(t, http.MethodGet, "/v1/exports/quote.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "xlsx-bytes", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = env.do(t, http.MethodGet, "/v1/exports/missing.xlsx", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, openai.Unavailable{})

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `quotekit_http_requests_total{method="GET",route="GET /health",status="200"} 1`)
}
