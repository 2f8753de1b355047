package openai

import (
	"context"

	"github.com/davidbz/quotekit/internal/domain"
)

// Unavailable is the assistant used when no API key is configured.
type Unavailable struct{}

// Reply always fails with domain.ErrAssistantNotConfigured.
func (Unavailable) Reply(context.Context, *domain.AssistantRequest) (*domain.AssistantResponse, error) {
	return nil, domain.ErrAssistantNotConfigured
}
