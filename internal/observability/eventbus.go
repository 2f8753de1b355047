package observability

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// EventBus publishes domain events as structured log entries.
type EventBus struct {
	enabled bool
}

// NewEventBus creates a new event bus.
func NewEventBus(enabled bool) *EventBus {
	return &EventBus{
		enabled: enabled,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if e == nil || !e.enabled {
		return
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(data)+1)
	fields = append(fields, zap.String("event", eventType))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}

	FromContext(ctx).Info("domain event", fields...)
}
