package file

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/davidbz/quotekit/internal/domain"
)

type catalogFile struct {
	Models []modelDoc `yaml:"models"`
}

type modelDoc struct {
	Code     string       `yaml:"code"`
	Name     string       `yaml:"name"`
	Category string       `yaml:"category"`
	Variants []variantDoc `yaml:"variants"`
}

type variantDoc struct {
	ID            string     `yaml:"id"`
	Mode          string     `yaml:"mode"`
	TokenTier     string     `yaml:"token_tier"`
	Resolution    string     `yaml:"resolution"`
	SupportsBatch bool       `yaml:"supports_batch"`
	SupportsCache bool       `yaml:"supports_cache"`
	Remark        string     `yaml:"remark"`
	Prices        []priceDoc `yaml:"prices"`
}

type priceDoc struct {
	Dimension string `yaml:"dimension"`
	Price     string `yaml:"price"`
	Unit      string `yaml:"unit"`
}

// Source reads the catalog from a YAML file.
type Source struct {
	path string
}

// NewSource creates a YAML catalog source.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Fetch reads and parses the file on every call so edits are picked up on reload.
func (s *Source) Fetch(_ context.Context) ([]domain.CatalogEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) ([]domain.CatalogEntry, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(doc.Models))
	for _, m := range doc.Models {
		entry := domain.CatalogEntry{
			Model:    domain.Model{Code: m.Code, Name: m.Name, Category: m.Category},
			Variants: make([]domain.Variant, 0, len(m.Variants)),
		}

		for _, v := range m.Variants {
			variant := domain.Variant{
				ID:            v.ID,
				ModelCode:     m.Code,
				ModelName:     m.Name,
				Mode:          v.Mode,
				TokenTier:     v.TokenTier,
				Resolution:    v.Resolution,
				SupportsBatch: v.SupportsBatch,
				SupportsCache: v.SupportsCache,
				Remark:        v.Remark,
				Dimensions:    make([]domain.PriceDimension, 0, len(v.Prices)),
			}

			for _, p := range v.Prices {
				price, err := decimal.NewFromString(p.Price)
				if err != nil {
					return nil, fmt.Errorf("variant %s: invalid price %q for %s: %w", v.ID, p.Price, p.Dimension, err)
				}
				variant.Dimensions = append(variant.Dimensions, domain.PriceDimension{
					Code:      domain.DimensionCode(p.Dimension),
					UnitPrice: price,
					Unit:      p.Unit,
				})
			}

			entry.Variants = append(entry.Variants, variant)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
