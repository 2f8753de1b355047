package domain

import (
	"fmt"
	"time"
)

// Step is a wizard state.
type Step string

// Wizard steps in forward order.
const (
	StepSelectingModels     Step = "selecting_models"
	StepConfiguringVariants Step = "configuring_variants"
	StepReviewingQuote      Step = "reviewing_quote"
	StepExported            Step = "exported"
)

// Wizard is the persisted state of one quoting session.
type Wizard struct {
	SessionID  string        `json:"session_id"`
	Step       Step          `json:"step"`
	Quote      Quote         `json:"quote"`
	LastExport *ExportResult `json:"last_export,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewWizard starts a session in SelectingModels with an empty quote.
func NewWizard(sessionID string, now time.Time) *Wizard {
	return &Wizard{
		SessionID:  sessionID,
		Step:       StepSelectingModels,
		Quote:      NewQuote(now),
		LastExport: nil,
		UpdatedAt:  now,
	}
}

// Editable fails once the quote has been exported.
func (w *Wizard) Editable() error {
	if w.Step == StepExported {
		return fmt.Errorf("quote already exported: %w", ErrInvalidTransition)
	}
	return nil
}

// Next moves one step forward when the current step is complete.
func (w *Wizard) Next() error {
	switch w.Step {
	case StepSelectingModels:
		if len(w.Quote.SelectedModels) == 0 {
			return ErrEmptyQuote
		}
		w.Step = StepConfiguringVariants
	case StepConfiguringVariants:
		if len(w.Quote.LineItems) == 0 {
			return ErrEmptyQuote
		}
		w.Step = StepReviewingQuote
	case StepReviewingQuote:
		return fmt.Errorf("review is the last step, export instead: %w", ErrInvalidTransition)
	default:
		return fmt.Errorf("no step after %s: %w", w.Step, ErrInvalidTransition)
	}
	return nil
}

// Previous moves one step back and keeps all entered data.
func (w *Wizard) Previous() error {
	switch w.Step {
	case StepConfiguringVariants:
		w.Step = StepSelectingModels
	case StepReviewingQuote:
		w.Step = StepConfiguringVariants
	default:
		return fmt.Errorf("no step before %s: %w", w.Step, ErrInvalidTransition)
	}
	return nil
}

// MarkExported records a successful export and clears the quote data.
func (w *Wizard) MarkExported(result *ExportResult, now time.Time) error {
	if w.Step != StepReviewingQuote {
		return fmt.Errorf("export from %s: %w", w.Step, ErrInvalidTransition)
	}
	w.Step = StepExported
	w.LastExport = result
	w.Quote = NewQuote(now)
	return nil
}

// Reset starts a fresh quote under the same session id.
func (w *Wizard) Reset(now time.Time) {
	w.Step = StepSelectingModels
	w.Quote = NewQuote(now)
	w.LastExport = nil
}
