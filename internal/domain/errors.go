package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a model, variant or line item is not known.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDiscount indicates a discount percentage outside [0, 100].
	ErrInvalidDiscount = errors.New("invalid discount")

	// ErrInvalidUsage indicates a negative or non-finite daily usage.
	ErrInvalidUsage = errors.New("invalid usage")

	// ErrInvalidCustomer indicates malformed customer information.
	ErrInvalidCustomer = errors.New("invalid customer info")

	// ErrEmptyQuote indicates an operation that needs at least one selection or line item.
	ErrEmptyQuote = errors.New("select at least one model")

	// ErrInvalidTransition indicates a wizard action not allowed in the current step.
	ErrInvalidTransition = errors.New("invalid wizard transition")

	// ErrExportFailed indicates the export sink rejected or failed to render a document.
	ErrExportFailed = errors.New("export failed")

	// ErrSessionNotFound indicates an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyMessage indicates a chat message with no content.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrAssistantUnavailable indicates the conversational assistant could not answer.
	ErrAssistantUnavailable = errors.New("assistant unavailable")

	// ErrAssistantNotConfigured indicates no assistant backend is configured.
	ErrAssistantNotConfigured = fmt.Errorf("%w: not configured", ErrAssistantUnavailable)
)
