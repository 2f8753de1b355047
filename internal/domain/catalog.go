package domain

import (
	"github.com/shopspring/decimal"
)

// DimensionCode identifies one charge axis of a variant.
type DimensionCode string

// Known dimension codes.
const (
	DimensionInput               DimensionCode = "input"
	DimensionInputToken          DimensionCode = "input_token"
	DimensionThinkingInput       DimensionCode = "thinking_input"
	DimensionInputTokenImage     DimensionCode = "input_token_image"
	DimensionOutput              DimensionCode = "output"
	DimensionOutputToken         DimensionCode = "output_token"
	DimensionThinkingOutput      DimensionCode = "thinking_output"
	DimensionOutputTokenThinking DimensionCode = "output_token_thinking"
	DimensionCharacter           DimensionCode = "character"
	DimensionAudioSecond         DimensionCode = "audio_second"
	DimensionVideoSecond         DimensionCode = "video_second"
	DimensionImageCount          DimensionCode = "image_count"
)

// Model is a purchasable product family.
type Model struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// PriceDimension is one charge axis of a variant.
type PriceDimension struct {
	Code      DimensionCode   `json:"dimension_code"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit"`
}

// Variant is one billable configuration of a model.
type Variant struct {
	ID            string           `json:"id"`
	ModelCode     string           `json:"model_code"`
	ModelName     string           `json:"model_name,omitempty"`
	Mode          string           `json:"mode,omitempty"`
	TokenTier     string           `json:"token_tier,omitempty"`
	Resolution    string           `json:"resolution,omitempty"`
	SupportsBatch bool             `json:"supports_batch"`
	SupportsCache bool             `json:"supports_cache"`
	Remark        string           `json:"remark,omitempty"`
	Dimensions    []PriceDimension `json:"prices"`
}

// CatalogEntry bundles a model with its variants for bulk loading.
type CatalogEntry struct {
	Model    Model
	Variants []Variant
}
