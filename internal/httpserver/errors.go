package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/export"
	"github.com/davidbz/quotekit/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, export.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidUsage),
		errors.Is(err, domain.ErrInvalidCustomer),
		errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyQuote),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAssistantNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrExportFailed),
		errors.Is(err, domain.ErrAssistantUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)

	logger := observability.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Error(err), observability.Int("status", status))
	} else {
		logger.Info("request rejected", observability.Error(err), observability.Int("status", status))
	}

	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}
