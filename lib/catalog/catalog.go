// Package catalog defines the pricing records scraped from the OpenAI
// pricing page and the published catalog shapes built from them.
package catalog

import "time"

// Source identifies where every published catalog was scraped from.
const Source = "openai_official_pricing_page"

// PricingType says which unit a record's rates are quoted in.
type PricingType string

const (
	Per1MTokens PricingType = "per_1m_tokens"
	PerImage    PricingType = "per_image"
	PerSecond   PricingType = "per_second"
	PerMinute   PricingType = "per_minute"
	Per1KChars  PricingType = "per_1k_chars"
	Unknown     PricingType = "unknown"
)

// Category groups models by what they do, not how they are priced.
type Category string

const (
	LanguageModel        Category = "language_model"
	Reasoning            Category = "reasoning"
	Embeddings           Category = "embeddings"
	ImageGeneration      Category = "image_generation"
	ImageGenerationToken Category = "image_generation_token"
	VideoGeneration      Category = "video_generation"
	AudioTranscription   Category = "audio_transcription"
	TextToSpeech         Category = "text_to_speech"
	ComputerUse          Category = "computer_use"
	Storage              Category = "storage"
	Other                Category = "other"
)

// Record is one model's pricing as captured in a single run. Token-priced
// records carry Input/Output/CachedInput rates per 1M tokens; unit-priced
// records carry a single Price. Absent rates are omitted from the JSON
// output rather than serialized as zeros.
type Record struct {
	Model       string      `json:"model"`
	PricingType PricingType `json:"pricing_type"`
	Category    Category    `json:"category"`
	Input       float64     `json:"input,omitempty"`
	CachedInput float64     `json:"cached_input,omitempty"`
	Output      float64     `json:"output,omitempty"`
	Price       float64     `json:"price,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// HasPricing reports whether the record carries at least one rate.
func (r Record) HasPricing() bool {
	return r.Input > 0 || r.CachedInput > 0 || r.Output > 0 || r.Price > 0
}

// Catalog is the full published artifact: every model captured in one run
// plus the run's metadata.
type Catalog struct {
	Models      map[string]Record `json:"models"`
	Timestamp   string            `json:"timestamp"`
	ModelsCount int               `json:"models_count"`
	Source      string            `json:"source"`
}

// Simplified is the API-facing view of a catalog. It currently mirrors the
// full catalog and adds LastUpdated; derive any future slimming here.
type Simplified struct {
	Models      map[string]Record `json:"models"`
	Timestamp   string            `json:"timestamp"`
	LastUpdated string            `json:"last_updated"`
	ModelsCount int               `json:"models_count"`
	Source      string            `json:"source"`
}

// Build stamps a set of extracted records with run metadata.
func Build(models map[string]Record, capturedAt time.Time) Catalog {
	return Catalog{
		Models:      models,
		Timestamp:   Timestamp(capturedAt),
		ModelsCount: len(models),
		Source:      Source,
	}
}

func (c Catalog) Simplified() Simplified {
	return Simplified{
		Models:      c.Models,
		Timestamp:   c.Timestamp,
		LastUpdated: c.Timestamp,
		ModelsCount: c.ModelsCount,
		Source:      c.Source,
	}
}

// Date returns the capture day in YYYY-MM-DD form.
func (c Catalog) Date() string {
	t, err := time.Parse(time.RFC3339, c.Timestamp)
	if err != nil {
		if len(c.Timestamp) >= len(time.DateOnly) {
			return c.Timestamp[:len(time.DateOnly)]
		}
		return c.Timestamp
	}
	return t.UTC().Format(time.DateOnly)
}

// Timestamp formats a capture time the way every published file expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
