package openaipricing

import (
	"strings"

	"pricewatch/lib/catalog"
)

// Classification is a prioritized list of (predicate, result) pairs
// evaluated top to bottom, first match wins. Specific prefixes
// (gpt-image) have to sit above the generic families (gpt-4) or they
// would never be reached.

func nameContains(substrings ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range substrings {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

var categoryRules = []struct {
	matches  func(name string) bool
	category catalog.Category
}{
	{nameContains("gpt-image"), catalog.ImageGenerationToken},
	{nameContains("dall-e", "dall·e"), catalog.ImageGeneration},
	{nameContains("sora"), catalog.VideoGeneration},
	{nameContains("whisper"), catalog.AudioTranscription},
	{nameContains("tts"), catalog.TextToSpeech},
	{nameContains("embedding"), catalog.Embeddings},
	{func(name string) bool {
		// the mini variants are priced and marketed as workhorse
		// models rather than reasoning ones
		return nameContains("o1", "o3", "o4")(name) && !strings.Contains(name, "mini")
	}, catalog.Reasoning},
	{nameContains("gpt-5", "gpt-4", "gpt-3.5", "davinci", "babbage"), catalog.LanguageModel},
	{nameContains("computer-use"), catalog.ComputerUse},
	{nameContains("storage"), catalog.Storage},
}

func classifyCategory(model string) catalog.Category {
	name := strings.ToLower(model)
	for _, rule := range categoryRules {
		if rule.matches(name) {
			return rule.category
		}
	}
	return catalog.Other
}

// pricingTypeRules back-fill the billing unit for rows that only carry a
// bare price column, where the table headers say nothing about units.
var pricingTypeRules = []struct {
	matches     func(name string) bool
	pricingType catalog.PricingType
}{
	{nameContains("gpt", "o1", "o3", "o4"), catalog.Per1MTokens},
	{nameContains("dall-e", "dall·e"), catalog.PerImage},
	{nameContains("sora"), catalog.PerSecond},
	{nameContains("whisper"), catalog.PerMinute},
	{nameContains("tts"), catalog.Per1KChars},
	{nameContains("embedding"), catalog.Per1MTokens},
}

func classifyPricingType(model string) catalog.PricingType {
	name := strings.ToLower(model)
	for _, rule := range pricingTypeRules {
		if rule.matches(name) {
			return rule.pricingType
		}
	}
	return catalog.Unknown
}
