package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// InMemoryCatalog stores the catalog snapshot in memory.
type InMemoryCatalog struct {
	mu       sync.RWMutex
	order    []string
	models   map[string]Model
	variants map[string]Variant
	byModel  map[string][]string
}

// NewInMemoryCatalog creates an empty in-memory catalog.
func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		mu:       sync.RWMutex{},
		order:    nil,
		models:   make(map[string]Model),
		variants: make(map[string]Variant),
		byModel:  make(map[string][]string),
	}
}

// Load replaces the whole snapshot. On error the previous snapshot is kept.
func (c *InMemoryCatalog) Load(_ context.Context, entries []CatalogEntry) error {
	order := make([]string, 0, len(entries))
	models := make(map[string]Model, len(entries))
	variants := make(map[string]Variant)
	byModel := make(map[string][]string, len(entries))

	for _, entry := range entries {
		code := entry.Model.Code
		if code == "" {
			return errors.New("model code cannot be empty")
		}
		if _, exists := models[code]; exists {
			return fmt.Errorf("duplicate model code: %s", code)
		}

		models[code] = entry.Model
		order = append(order, code)
		ids := make([]string, 0, len(entry.Variants))

		for _, v := range entry.Variants {
			if v.ID == "" {
				return fmt.Errorf("variant of model %s has empty id", code)
			}
			if _, exists := variants[v.ID]; exists {
				return fmt.Errorf("duplicate variant id: %s", v.ID)
			}
			for _, d := range v.Dimensions {
				if d.UnitPrice.IsNegative() {
					return fmt.Errorf("variant %s: negative unit price for %s", v.ID, d.Code)
				}
			}

			v.ModelCode = code
			variants[v.ID] = v
			ids = append(ids, v.ID)
		}
		byModel[code] = ids
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = order
	c.models = models
	c.variants = variants
	c.byModel = byModel

	return nil
}

// Models returns all models in catalog order.
func (c *InMemoryCatalog) Models(_ context.Context) ([]Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Model, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.models[code])
	}

	return out, nil
}

// Model returns a model by code.
func (c *InMemoryCatalog) Model(_ context.Context, code string) (Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	model, exists := c.models[code]
	if !exists {
		return Model{}, fmt.Errorf("model %s: %w", code, ErrNotFound)
	}

	return model, nil
}

// VariantsFor returns the variants of a model in catalog order.
func (c *InMemoryCatalog) VariantsFor(_ context.Context, modelCode string) ([]Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids, exists := c.byModel[modelCode]
	if !exists {
		return nil, fmt.Errorf("model %s: %w", modelCode, ErrNotFound)
	}

	out := make([]Variant, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.variants[id])
	}

	return out, nil
}

// Variant returns a variant by id.
func (c *InMemoryCatalog) Variant(_ context.Context, variantID string) (Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, exists := c.variants[variantID]
	if !exists {
		return Variant{}, fmt.Errorf("variant %s: %w", variantID, ErrNotFound)
	}

	return v, nil
}
