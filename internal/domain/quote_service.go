package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/quotekit/internal/observability"
)

const quoteKeyPrefix = "quote_session:"

// QuoteServiceConfig holds session settings for QuoteService.
type QuoteServiceConfig struct {
	SessionTTL time.Duration
}

// AddLineItemInput is the data needed to add or update a line item.
type AddLineItemInput struct {
	ModelCode       string     `json:"model_code"`
	VariantID       string     `json:"variant_id"`
	DiscountPercent *float64   `json:"discount_percent,omitempty"`
	DailyUsage      *float64   `json:"daily_usage,omitempty"`
	Source          LineSource `json:"-"`
}

// LineItemPatch updates the user inputs of a line item.
// Nil pointers leave a field unchanged; the Clear flags remove it.
type LineItemPatch struct {
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	DailyUsage      *float64 `json:"daily_usage,omitempty"`
	ClearDiscount   bool     `json:"clear_discount,omitempty"`
	ClearUsage      bool     `json:"clear_usage,omitempty"`
}

// CustomerInput sets the quote header and order-wide options.
type CustomerInput struct {
	Name            string    `json:"name"`
	QuoteDate       string    `json:"quote_date,omitempty"`
	ValidUntil      string    `json:"valid_until,omitempty"`
	DiscountPercent *float64  `json:"discount_percent,omitempty"`
	PriceUnit       PriceUnit `json:"price_unit,omitempty"`
}

// QuoteService drives wizard sessions.
type QuoteService struct {
	mu      sync.Mutex
	store   SessionStore
	catalog CatalogIndex
	engine  *PricingEngine
	sink    ExportSink
	events  EventPublisher
	metrics *observability.Metrics
	ttl     time.Duration
	now     func() time.Time
}

// NewQuoteService creates a new quote service (DI constructor).
func NewQuoteService(
	store SessionStore,
	catalog CatalogIndex,
	engine *PricingEngine,
	sink ExportSink,
	events EventPublisher,
	metrics *observability.Metrics,
	cfg QuoteServiceConfig,
) *QuoteService {
	return &QuoteService{
		mu:      sync.Mutex{},
		store:   store,
		catalog: catalog,
		engine:  engine,
		sink:    sink,
		events:  events,
		metrics: metrics,
		ttl:     cfg.SessionTTL,
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// Create starts a new wizard session.
func (s *QuoteService) Create(ctx context.Context) (*Wizard, error) {
	return s.CreateWithID(ctx, uuid.New().String())
}

// CreateWithID starts a new wizard session under a caller-chosen id.
func (s *QuoteService) CreateWithID(ctx context.Context, sessionID string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.create(ctx, sessionID)
}

// Get returns the wizard of a session.
func (s *QuoteService) Get(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.load(ctx, sessionID)
}

// GetOrCreate returns the session's wizard, creating it when missing.
// The lookup and the create happen under one lock.
func (s *QuoteService) GetOrCreate(ctx context.Context, sessionID string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return s.create(ctx, sessionID)
	}
	return w, err
}

// create saves a fresh wizard. Callers hold s.mu.
func (s *QuoteService) create(ctx context.Context, sessionID string) (*Wizard, error) {
	if sessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}

	w := NewWizard(sessionID, s.now())
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("quote session created",
		observability.String("session_id", sessionID))

	return w, nil
}

// Reset discards the quote and starts again in SelectingModels.
func (s *QuoteService) Reset(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.mutate(ctx, sessionID, true, func(w *Wizard) error {
		w.Reset(s.now())
		return nil
	})
}

// SelectModels replaces the model selection. Line items of deselected models are dropped.
func (s *QuoteService) SelectModels(ctx context.Context, sessionID string, modelCodes []string) (*Wizard, error) {
	selected := make([]string, 0, len(modelCodes))
	seen := make(map[string]struct{}, len(modelCodes))
	for _, code := range modelCodes {
		if _, dup := seen[code]; dup {
			continue
		}
		if _, err := s.catalog.Model(ctx, code); err != nil {
			return nil, err
		}
		seen[code] = struct{}{}
		selected = append(selected, code)
	}

	return s.mutate(ctx, sessionID, false, func(w *Wizard) error {
		w.Quote.SelectedModels = selected

		kept := make([]QuoteLineItem, 0, len(w.Quote.LineItems))
		for _, item := range w.Quote.LineItems {
			if _, ok := seen[item.ModelCode]; ok {
				kept = append(kept, item)
			}
		}
		w.Quote.LineItems = kept

		return nil
	})
}

// AddLineItem adds a variant to the quote. Adding a variant already present updates it in place;
// nil discount or usage keeps the line's current value.
func (s *QuoteService) AddLineItem(ctx context.Context, sessionID string, in AddLineItemInput) (*Wizard, error) {
	if err := validateLineInputs(in.DiscountPercent, in.DailyUsage); err != nil {
		return nil, err
	}

	variant, err := s.catalog.Variant(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}
	if in.ModelCode == "" {
		in.ModelCode = variant.ModelCode
	}
	if variant.ModelCode != in.ModelCode {
		return nil, fmt.Errorf("variant %s of model %s: %w", in.VariantID, in.ModelCode, ErrNotFound)
	}
	if in.Source == "" {
		in.Source = SourceWizard
	}

	ctx = observability.WithModel(ctx, in.ModelCode)
	added := false

	w, err := s.mutate(ctx, sessionID, false, func(w *Wizard) error {
		if !w.Quote.IsSelected(in.ModelCode) {
			w.Quote.SelectedModels = append(w.Quote.SelectedModels, in.ModelCode)
		}

		if idx := w.Quote.findVariant(in.VariantID); idx >= 0 {
			item := &w.Quote.LineItems[idx]
			if in.DiscountPercent != nil {
				item.DiscountPercent = in.DiscountPercent
			}
			if in.DailyUsage != nil {
				item.DailyUsage = in.DailyUsage
			}
			return nil
		}

		w.Quote.LineItems = append(w.Quote.LineItems, QuoteLineItem{
			ID:              uuid.New().String(),
			ModelCode:       in.ModelCode,
			VariantID:       in.VariantID,
			DiscountPercent: in.DiscountPercent,
			DailyUsage:      in.DailyUsage,
			Source:          in.Source,
		})
		added = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.metrics.LineItemAdded(string(in.Source))
		s.publish(ctx, "quote.line_item_added", map[string]interface{}{
			"session_id": sessionID,
			"model_code": in.ModelCode,
			"variant_id": in.VariantID,
			"source":     string(in.Source),
		})
	}

	return w, nil
}

// UpdateLineItem changes the discount or usage of a line item.
func (s *QuoteService) UpdateLineItem(ctx context.Context, sessionID, itemID string, patch LineItemPatch) (*Wizard, error) {
	if err := validateLineInputs(patch.DiscountPercent, patch.DailyUsage); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, false, func(w *Wizard) error {
		idx := w.Quote.FindLineItem(itemID)
		if idx < 0 {
			return fmt.Errorf("line item %s: %w", itemID, ErrNotFound)
		}

		item := &w.Quote.LineItems[idx]
		switch {
		case patch.ClearDiscount:
			item.DiscountPercent = nil
		case patch.DiscountPercent != nil:
			item.DiscountPercent = patch.DiscountPercent
		}
		switch {
		case patch.ClearUsage:
			item.DailyUsage = nil
		case patch.DailyUsage != nil:
			item.DailyUsage = patch.DailyUsage
		}

		return nil
	})
}

// RemoveLineItem deletes a line item.
func (s *QuoteService) RemoveLineItem(ctx context.Context, sessionID, itemID string) (*Wizard, error) {
	return s.mutate(ctx, sessionID, false, func(w *Wizard) error {
		idx := w.Quote.FindLineItem(itemID)
		if idx < 0 {
			return fmt.Errorf("line item %s: %w", itemID, ErrNotFound)
		}
		w.Quote.LineItems = append(w.Quote.LineItems[:idx], w.Quote.LineItems[idx+1:]...)
		return nil
	})
}

// SetCustomer sets the quote header. Missing dates default to today and one month later.
func (s *QuoteService) SetCustomer(ctx context.Context, sessionID string, in CustomerInput) (*Wizard, error) {
	customer := CustomerInfo{Name: in.Name, QuoteDate: in.QuoteDate, ValidUntil: in.ValidUntil}
	if customer.QuoteDate == "" {
		customer.QuoteDate = s.now().Format(DateLayout)
	}
	if customer.ValidUntil == "" {
		quoteDate, err := time.Parse(DateLayout, customer.QuoteDate)
		if err != nil {
			return nil, fmt.Errorf("quote date %q: %w", customer.QuoteDate, ErrInvalidCustomer)
		}
		customer.ValidUntil = quoteDate.AddDate(0, 1, 0).Format(DateLayout)
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if in.DiscountPercent != nil {
		if err := ValidateDiscount(*in.DiscountPercent); err != nil {
			return nil, err
		}
	}
	if err := in.PriceUnit.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, false, func(w *Wizard) error {
		w.Quote.Customer = customer
		if in.DiscountPercent != nil {
			w.Quote.DiscountPercent = *in.DiscountPercent
		}
		if in.PriceUnit != "" {
			w.Quote.PriceUnit = in.PriceUnit
		}
		return nil
	})
}

// Next advances the wizard.
func (s *QuoteService) Next(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.mutate(ctx, sessionID, true, func(w *Wizard) error {
		return w.Next()
	})
}

// Previous steps the wizard back without discarding data.
func (s *QuoteService) Previous(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.mutate(ctx, sessionID, true, func(w *Wizard) error {
		return w.Previous()
	})
}

// Preview builds the quote document without changing the session.
func (s *QuoteService) Preview(ctx context.Context, sessionID string) (*QuoteDocument, error) {
	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildDocument(ctx, &w.Quote)
}

// Export renders the quote through the export sink.
// On failure the session is left untouched so the export can be retried.
func (s *QuoteService) Export(ctx context.Context, sessionID string) (*ExportResult, error) {
	ctx = observability.WithSessionID(ctx, sessionID)
	logger := observability.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if w.Step != StepReviewingQuote {
		if len(w.Quote.LineItems) == 0 && w.Step != StepExported {
			return nil, ErrEmptyQuote
		}
		return nil, fmt.Errorf("export from %s: %w", w.Step, ErrInvalidTransition)
	}

	doc, err := s.engine.BuildDocument(ctx, &w.Quote)
	if err != nil {
		return nil, err
	}

	result, err := s.sink.Submit(ctx, doc)
	if err == nil && (result == nil || !result.Success) {
		err = errors.New("sink reported failure")
	}
	if err != nil {
		s.metrics.Export(observability.OutcomeFailure)
		logger.Warn("quote export failed", observability.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	if err = w.MarkExported(result, s.now()); err != nil {
		return nil, err
	}
	if err = s.save(ctx, w); err != nil {
		return nil, err
	}

	s.metrics.Export(observability.OutcomeSuccess)
	s.publish(ctx, "quote.exported", map[string]interface{}{
		"session_id":    sessionID,
		"filename":      result.Filename,
		"line_count":    doc.LineCount,
		"total_monthly": doc.TotalMonthly.StringFixed(monthlyPlaces),
	})

	return result, nil
}

// mutate loads a session, applies fn and saves the result.
// Unless allowExported is set, exported sessions are read-only.
func (s *QuoteService) mutate(
	ctx context.Context,
	sessionID string,
	allowExported bool,
	fn func(w *Wizard) error,
) (*Wizard, error) {
	ctx = observability.WithSessionID(ctx, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !allowExported {
		if err = w.Editable(); err != nil {
			return nil, err
		}
	}
	if err = fn(w); err != nil {
		return nil, err
	}
	if err = s.save(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func (s *QuoteService) load(ctx context.Context, sessionID string) (*Wizard, error) {
	data, err := s.store.Load(ctx, quoteKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}

	var w Wizard
	if err = json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}

	return &w, nil
}

func (s *QuoteService) save(ctx context.Context, w *Wizard) error {
	w.UpdatedAt = s.now()

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", w.SessionID, err)
	}
	if err = s.store.Save(ctx, quoteKeyPrefix+w.SessionID, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", w.SessionID, err)
	}

	return nil
}

func (s *QuoteService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}

func validateLineInputs(discount, usage *float64) error {
	if discount != nil {
		if err := ValidateDiscount(*discount); err != nil {
			return err
		}
	}
	if usage != nil {
		if err := ValidateUsage(*usage); err != nil {
			return err
		}
	}
	return nil
}
