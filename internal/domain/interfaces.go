package domain

import (
	"context"
	"time"
)

// CatalogIndex looks up models and their pricing variants.
type CatalogIndex interface {
	// Models returns all models in catalog order.
	Models(ctx context.Context) ([]Model, error)

	// Model returns a model by code.
	Model(ctx context.Context, code string) (Model, error)

	// VariantsFor returns the variants of a model.
	VariantsFor(ctx context.Context, modelCode string) ([]Variant, error)

	// Variant returns a single variant by id.
	Variant(ctx context.Context, variantID string) (Variant, error)

	// Load replaces the catalog snapshot.
	Load(ctx context.Context, entries []CatalogEntry) error
}

// CatalogSource reads catalog entries from a backing store.
type CatalogSource interface {
	// Fetch returns every model with its variants.
	Fetch(ctx context.Context) ([]CatalogEntry, error)
}

// SessionStore is a key-value store of JSON session blobs.
type SessionStore interface {
	// Load returns the stored blob or ErrSessionNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores the blob and refreshes its expiry.
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ExportSink renders a quote document somewhere retrievable.
type ExportSink interface {
	// Submit renders the document and returns a handle to it.
	Submit(ctx context.Context, doc *QuoteDocument) (*ExportResult, error)
}

// ExportResult is the handle returned by an ExportSink.
type ExportResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// Assistant produces a chat reply and structured actions.
type Assistant interface {
	// Reply answers the conversation so far.
	Reply(ctx context.Context, req *AssistantRequest) (*AssistantResponse, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
