package domain

import "strings"

// PriceType is the billing style a category is displayed with.
type PriceType string

// Price types.
const (
	PriceTypeToken     PriceType = "token"
	PriceTypeImage     PriceType = "image"
	PriceTypeCharacter PriceType = "character"
	PriceTypeAudio     PriceType = "audio"
	PriceTypeVideo     PriceType = "video"
)

// CategorySource tells how a category was determined.
type CategorySource string

// Category sources.
const (
	CategoryKnown        CategorySource = "known"
	CategoryInferred     CategorySource = "inferred"
	CategoryUnclassified CategorySource = "unclassified"
)

// UncategorizedKey groups lines whose category could not be determined.
const UncategorizedKey = "uncategorized"

// Category is the classification of a model. Code is empty when Source is CategoryUnclassified.
type Category struct {
	Code   string         `json:"code"`
	Source CategorySource `json:"source"`
}

// CategoryInfo describes how a category is presented.
type CategoryInfo struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	PriceType PriceType `json:"price_type"`
}

// categoryTable is the fixed display order of quote groups.
//
//nolint:gochecknoglobals // Static presentation table
var categoryTable = []CategoryInfo{
	{Key: "text_qwen", Name: "文本生成-通义千问", Icon: "💬", PriceType: PriceTypeToken},
	{Key: "text_qwen_opensource", Name: "文本生成-通义千问-开源版", Icon: "📝", PriceType: PriceTypeToken},
	{Key: "text_thirdparty", Name: "文本生成-第三方模型", Icon: "🤖", PriceType: PriceTypeToken},
	{Key: "image_gen", Name: "图像生成", Icon: "🎨", PriceType: PriceTypeImage},
	{Key: "image_gen_thirdparty", Name: "图像生成-第三方模型", Icon: "🖼️", PriceType: PriceTypeImage},
	{Key: "tts", Name: "语音合成", Icon: "🔊", PriceType: PriceTypeCharacter},
	{Key: "asr", Name: "语音识别与翻译", Icon: "🎤", PriceType: PriceTypeAudio},
	{Key: "video_gen", Name: "视频生成", Icon: "🎬", PriceType: PriceTypeVideo},
	{Key: "text_embedding", Name: "文本向量", Icon: "📊", PriceType: PriceTypeToken},
	{Key: "multimodal_embedding", Name: "多模态向量", Icon: "🌐", PriceType: PriceTypeToken},
	{Key: "text_nlu", Name: "文本分类抽取排序", Icon: "🔍", PriceType: PriceTypeToken},
	{Key: "industry", Name: "行业模型", Icon: "🏭", PriceType: PriceTypeToken},
}

//nolint:gochecknoglobals // Static presentation entry
var uncategorizedInfo = CategoryInfo{
	Key:       UncategorizedKey,
	Name:      "其他",
	Icon:      "📦",
	PriceType: PriceTypeToken,
}

// keywordRule maps a substring of the model code or name to a category.
type keywordRule struct {
	keywords []string
	category string
}

// keywordRules are checked in order; the first match wins.
//
//nolint:gochecknoglobals // Static classifier table
var keywordRules = []keywordRule{
	{keywords: []string{"multimodal-embedding", "multimodal_embedding"}, category: "multimodal_embedding"},
	{keywords: []string{"embedding", "embed"}, category: "text_embedding"},
	{keywords: []string{"rerank", "nlu"}, category: "text_nlu"},
	{keywords: []string{"tts", "cosyvoice", "sambert"}, category: "tts"},
	{keywords: []string{"asr", "paraformer", "sensevoice", "gummy"}, category: "asr"},
	{keywords: []string{"video", "t2v", "i2v"}, category: "video_gen"},
	{keywords: []string{"image", "wanx", "t2i", "flux"}, category: "image_gen"},
	{keywords: []string{"qwen", "qwq", "qvq"}, category: "text_qwen"},
}

// Categories returns the category table in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categoryTable))
	copy(out, categoryTable)
	return out
}

// LookupCategory returns presentation info for a category key.
func LookupCategory(key string) (CategoryInfo, bool) {
	if key == UncategorizedKey {
		return uncategorizedInfo, true
	}
	for _, info := range categoryTable {
		if info.Key == key {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Classify returns the authoritative catalog category when it is known,
// otherwise falls back to keyword matching over the model code and name.
func Classify(model Model) Category {
	if _, ok := LookupCategory(model.Category); ok && model.Category != UncategorizedKey {
		return Category{Code: model.Category, Source: CategoryKnown}
	}

	return inferCategory(model.Code + " " + model.Name)
}

// ClassifyCode classifies a model that is missing from the catalog.
func ClassifyCode(modelCode string) Category {
	return inferCategory(modelCode)
}

func inferCategory(text string) Category {
	text = strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return Category{Code: rule.category, Source: CategoryInferred}
			}
		}
	}

	return Category{Code: "", Source: CategoryUnclassified}
}

// groupKey is the aggregation key of a category.
func (c Category) groupKey() string {
	if c.Source == CategoryUnclassified || c.Code == "" {
		return UncategorizedKey
	}
	return c.Code
}
