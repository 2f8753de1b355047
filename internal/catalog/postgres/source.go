package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Postgres driver
	"github.com/shopspring/decimal"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/observability"
)

const (
	maxOpenConns    = 5
	connMaxLifetime = 30 * time.Minute
)

const variantsQuery = `
	SELECT pm.id, pm.model_code, pm.model_name, pm.display_name,
	       COALESCE(pc.code, '') AS category_code,
	       pm.mode, pm.token_tier, pm.resolution,
	       pm.supports_batch, pm.supports_cache, pm.remark
	FROM pricing_model pm
	LEFT JOIN pricing_category pc ON pc.id = pm.category_id
	WHERE pm.status = 'active'
	ORDER BY COALESCE(pc.sort_order, 0), pm.model_code, pm.id
`

const pricesQuery = `
	SELECT model_id, dimension_code, unit_price, unit
	FROM pricing_model_price
	ORDER BY model_id, id
`

type variantRow struct {
	ID            int64          `db:"id"`
	ModelCode     sql.NullString `db:"model_code"`
	ModelName     string         `db:"model_name"`
	DisplayName   string         `db:"display_name"`
	CategoryCode  string         `db:"category_code"`
	Mode          sql.NullString `db:"mode"`
	TokenTier     sql.NullString `db:"token_tier"`
	Resolution    sql.NullString `db:"resolution"`
	SupportsBatch sql.NullBool   `db:"supports_batch"`
	SupportsCache sql.NullBool   `db:"supports_cache"`
	Remark        sql.NullString `db:"remark"`
}

type priceRow struct {
	ModelID       int64           `db:"model_id"`
	DimensionCode sql.NullString  `db:"dimension_code"`
	UnitPrice     decimal.Decimal `db:"unit_price"`
	Unit          string          `db:"unit"`
}

// Source reads the catalog from the pricing_model tables.
type Source struct {
	db *sqlx.DB
}

// Open connects to Postgres with lib/pq.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// NewSource creates a database catalog source.
func NewSource(db *sqlx.DB) *Source {
	return &Source{db: db}
}

// Fetch loads every active variant with its prices.
func (s *Source) Fetch(ctx context.Context) ([]domain.CatalogEntry, error) {
	var variants []variantRow
	if err := s.db.SelectContext(ctx, &variants, variantsQuery); err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}

	var prices []priceRow
	if err := s.db.SelectContext(ctx, &prices, pricesQuery); err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}

	entries := assemble(variants, prices)
	observability.FromContext(ctx).Info("catalog fetched from database",
		observability.Int("models", len(entries)),
		observability.Int("variants", len(variants)),
		observability.Int("prices", len(prices)))

	return entries, nil
}

// assemble groups variant rows by model code, keeping first-seen order.
// A row with no model code is its own model, keyed by its display name.
func assemble(variants []variantRow, prices []priceRow) []domain.CatalogEntry {
	byVariant := make(map[int64][]domain.PriceDimension, len(variants))
	for _, p := range prices {
		if !p.DimensionCode.Valid || p.DimensionCode.String == "" {
			continue
		}
		byVariant[p.ModelID] = append(byVariant[p.ModelID], domain.PriceDimension{
			Code:      domain.DimensionCode(p.DimensionCode.String),
			UnitPrice: p.UnitPrice,
			Unit:      p.Unit,
		})
	}

	entries := make([]domain.CatalogEntry, 0)
	index := make(map[string]int)

	for _, row := range variants {
		code := row.ModelCode.String
		if code == "" {
			code = row.DisplayName
		}
		name := row.DisplayName
		if name == "" {
			name = row.ModelName
		}

		pos, seen := index[code]
		if !seen {
			pos = len(entries)
			index[code] = pos
			entries = append(entries, domain.CatalogEntry{
				Model:    domain.Model{Code: code, Name: name, Category: row.CategoryCode},
				Variants: nil,
			})
		}

		entries[pos].Variants = append(entries[pos].Variants, domain.Variant{
			ID:            strconv.FormatInt(row.ID, 10),
			ModelCode:     code,
			ModelName:     name,
			Mode:          row.Mode.String,
			TokenTier:     row.TokenTier.String,
			Resolution:    row.Resolution.String,
			SupportsBatch: row.SupportsBatch.Bool,
			SupportsCache: row.SupportsCache.Bool,
			Remark:        row.Remark.String,
			Dimensions:    byVariant[row.ID],
		})
	}

	return entries
}
