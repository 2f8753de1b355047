package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/observability"
)

// ExportFiles resolves exported filenames to files on disk.
type ExportFiles interface {
	Open(filename string) (path string, contentType string, err error)
}

// Handler handles HTTP requests.
type Handler struct {
	quotes  *domain.QuoteService
	chat    *domain.ChatService
	catalog domain.CatalogIndex
	source  domain.CatalogSource
	exports ExportFiles
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	quotes *domain.QuoteService,
	chat *domain.ChatService,
	catalog domain.CatalogIndex,
	source domain.CatalogSource,
	exports ExportFiles,
) *Handler {
	return &Handler{
		quotes:  quotes,
		chat:    chat,
		catalog: catalog,
		source:  source,
		exports: exports,
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)

	mux.HandleFunc("GET /v1/catalog/models", h.HandleListModels)
	mux.HandleFunc("GET /v1/catalog/models/{code}/variants", h.HandleListVariants)
	mux.HandleFunc("POST /v1/catalog/reload", h.HandleReloadCatalog)

	mux.HandleFunc("POST /v1/quotes", h.HandleCreateQuote)
	mux.HandleFunc("GET /v1/quotes/{id}", h.HandleGetQuote)
	mux.HandleFunc("DELETE /v1/quotes/{id}", h.HandleResetQuote)
	mux.HandleFunc("PUT /v1/quotes/{id}/models", h.HandleSelectModels)
	mux.HandleFunc("POST /v1/quotes/{id}/items", h.HandleAddLineItem)
	mux.HandleFunc("PATCH /v1/quotes/{id}/items/{itemID}", h.HandleUpdateLineItem)
	mux.HandleFunc("DELETE /v1/quotes/{id}/items/{itemID}", h.HandleRemoveLineItem)
	mux.HandleFunc("PUT /v1/quotes/{id}/customer", h.HandleSetCustomer)
	mux.HandleFunc("POST /v1/quotes/{id}/next", h.HandleNext)
	mux.HandleFunc("POST /v1/quotes/{id}/previous", h.HandlePrevious)
	mux.HandleFunc("GET /v1/quotes/{id}/preview", h.HandlePreview)
	mux.HandleFunc("POST /v1/quotes/{id}/export", h.HandleExport)
	mux.HandleFunc("GET /v1/exports/{filename}", h.HandleDownload)

	mux.HandleFunc("POST /v1/chat", h.HandleChat)
	mux.HandleFunc("POST /v1/chat/{id}/clear", h.HandleClearChat)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

type modelView struct {
	domain.Model

	Group domain.CategoryInfo `json:"group"`
	Class domain.Category     `json:"classification"`
}

// HandleListModels lists catalog models with their display category.
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	models, err := h.catalog.Models(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]modelView, 0, len(models))
	for _, model := range models {
		class := domain.Classify(model)
		group, _ := domain.LookupCategory(class.Code)
		out = append(out, modelView{Model: model, Group: group, Class: class})
	}

	writeJSON(ctx, w, http.StatusOK, out)
}

// HandleListVariants lists the variants of a model. Unknown models have no variants.
func (h *Handler) HandleListVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.PathValue("code")
	ctx = observability.WithModel(ctx, code)

	variants, err := h.catalog.VariantsFor(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		variants = []domain.Variant{}
	} else if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, variants)
}

// HandleReloadCatalog refetches the catalog from its source.
func (h *Handler) HandleReloadCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	entries, err := h.source.Fetch(ctx)
	if err != nil {
		logger.Error("catalog fetch failed", observability.Error(err))
		writeError(ctx, w, err)
		return
	}
	if err = h.catalog.Load(ctx, entries); err != nil {
		logger.Error("catalog load failed", observability.Error(err))
		writeError(ctx, w, err)
		return
	}

	logger.Info("catalog reloaded", observability.Int("models", len(entries)))
	writeJSON(ctx, w, http.StatusOK, map[string]int{"models": len(entries)})
}

// HandleCreateQuote starts a new wizard session.
func (h *Handler) HandleCreateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wizard, err := h.quotes.Create(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, wizard)
}

// HandleGetQuote returns the wizard state.
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.Get(ctx, id)
	})
}

// HandleResetQuote starts over under the same session id.
func (h *Handler) HandleResetQuote(w http.ResponseWriter, r *http.Request) {
	h.respondWizard(w, r, h.quotes.Reset)
}

type selectModelsRequest struct {
	ModelCodes []string `json:"model_codes"`
}

// HandleSelectModels replaces the selected model list.
func (h *Handler) HandleSelectModels(w http.ResponseWriter, r *http.Request) {
	var req selectModelsRequest
	if !decode(w, r, &req) {
		return
	}

	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.SelectModels(ctx, id, req.ModelCodes)
	})
}

// HandleAddLineItem adds or updates the line for a variant.
func (h *Handler) HandleAddLineItem(w http.ResponseWriter, r *http.Request) {
	var req domain.AddLineItemInput
	if !decode(w, r, &req) {
		return
	}
	if req.ModelCode == "" || req.VariantID == "" {
		http.Error(w, "model_code and variant_id are required", http.StatusBadRequest)
		return
	}
	req.Source = domain.SourceWizard

	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.AddLineItem(observability.WithModel(ctx, req.ModelCode), id, req)
	})
}

// HandleUpdateLineItem patches a line's discount or usage.
func (h *Handler) HandleUpdateLineItem(w http.ResponseWriter, r *http.Request) {
	var req domain.LineItemPatch
	if !decode(w, r, &req) {
		return
	}

	itemID := r.PathValue("itemID")
	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.UpdateLineItem(ctx, id, itemID, req)
	})
}

// HandleRemoveLineItem deletes a line.
func (h *Handler) HandleRemoveLineItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemID")
	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.RemoveLineItem(ctx, id, itemID)
	})
}

// HandleSetCustomer sets customer info, order discount and price unit.
func (h *Handler) HandleSetCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerInput
	if !decode(w, r, &req) {
		return
	}

	h.respondWizard(w, r, func(ctx context.Context, id string) (*domain.Wizard, error) {
		return h.quotes.SetCustomer(ctx, id, req)
	})
}

// HandleNext advances the wizard.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.respondWizard(w, r, h.quotes.Next)
}

// HandlePrevious steps the wizard back.
func (h *Handler) HandlePrevious(w http.ResponseWriter, r *http.Request) {
	h.respondWizard(w, r, h.quotes.Previous)
}

// HandlePreview returns the grouped quote document.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := observability.WithSessionID(r.Context(), id)

	doc, err := h.quotes.Preview(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, doc)
}

// HandleExport renders the quote and finishes the wizard.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := observability.WithSessionID(r.Context(), id)

	result, err := h.quotes.Export(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	observability.FromContext(ctx).Info("quote exported", observability.String("filename", result.Filename))
	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleDownload serves a previously exported file.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filename := r.PathValue("filename")

	path, contentType, err := h.exports.Open(filename)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	http.ServeFile(w, r, path)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HandleChat runs one assistant turn.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	reply, err := h.chat.Send(ctx, req.SessionID, req.Message)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, reply)
}

// HandleClearChat drops a session's chat history.
func (h *Handler) HandleClearChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := observability.WithSessionID(r.Context(), id)

	if err := h.chat.Clear(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWizard(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string) (*domain.Wizard, error),
) {
	id := r.PathValue("id")
	ctx := observability.WithSessionID(r.Context(), id)

	wizard, err := fn(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, wizard)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
