package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of quote dates.
const DateLayout = "2006-01-02"

// LineSource tells which surface created a line item.
type LineSource string

// Line item sources.
const (
	SourceWizard LineSource = "wizard"
	SourceChat   LineSource = "chat"
)

// QuoteLineItem is one variant plus the user's inputs.
type QuoteLineItem struct {
	ID              string     `json:"id"`
	ModelCode       string     `json:"model_code"`
	VariantID       string     `json:"variant_id"`
	DiscountPercent *float64   `json:"discount_percent,omitempty"`
	DailyUsage      *float64   `json:"daily_usage,omitempty"`
	Source          LineSource `json:"source"`
}

// CustomerInfo is the header of a quote.
type CustomerInfo struct {
	Name       string `json:"name"`
	QuoteDate  string `json:"quote_date"`
	ValidUntil string `json:"valid_until"`
}

// Quote is the in-progress quotation of a wizard session.
type Quote struct {
	SelectedModels  []string        `json:"selected_models"`
	LineItems       []QuoteLineItem `json:"line_items"`
	Customer        CustomerInfo    `json:"customer"`
	DiscountPercent float64         `json:"discount_percent"`
	PriceUnit       PriceUnit       `json:"price_unit"`
}

// NewQuote returns an empty quote dated from now.
func NewQuote(now time.Time) Quote {
	return Quote{
		SelectedModels:  []string{},
		LineItems:       []QuoteLineItem{},
		Customer:        DefaultCustomer(now),
		DiscountPercent: 0,
		PriceUnit:       PriceUnitThousand,
	}
}

// DefaultCustomer dates a quote today and keeps it valid for one month.
func DefaultCustomer(now time.Time) CustomerInfo {
	return CustomerInfo{
		Name:       "",
		QuoteDate:  now.Format(DateLayout),
		ValidUntil: now.AddDate(0, 1, 0).Format(DateLayout),
	}
}

// Validate checks both dates parse and validity does not precede the quote date.
func (c CustomerInfo) Validate() error {
	quoteDate, err := time.Parse(DateLayout, c.QuoteDate)
	if err != nil {
		return fmt.Errorf("quote date %q: %w", c.QuoteDate, ErrInvalidCustomer)
	}
	validUntil, err := time.Parse(DateLayout, c.ValidUntil)
	if err != nil {
		return fmt.Errorf("valid until %q: %w", c.ValidUntil, ErrInvalidCustomer)
	}
	if validUntil.Before(quoteDate) {
		return fmt.Errorf("valid until %s precedes quote date %s: %w", c.ValidUntil, c.QuoteDate, ErrInvalidCustomer)
	}
	return nil
}

// IsSelected reports whether a model is in the selection.
func (q *Quote) IsSelected(modelCode string) bool {
	for _, code := range q.SelectedModels {
		if code == modelCode {
			return true
		}
	}
	return false
}

// FindLineItem returns the index of a line item by id, or -1.
func (q *Quote) FindLineItem(id string) int {
	for i, item := range q.LineItems {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (q *Quote) findVariant(variantID string) int {
	for i, item := range q.LineItems {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}

// Header builds the document header of the quote.
func (q *Quote) Header() DocumentHeader {
	return DocumentHeader{
		CustomerName:    q.Customer.Name,
		QuoteDate:       q.Customer.QuoteDate,
		ValidUntil:      q.Customer.ValidUntil,
		DiscountPercent: q.DiscountPercent,
		PriceUnit:       q.PriceUnit,
	}
}
