package costcalc

import (
	"testing"

	"pricewatch/lib/catalog"

	"github.com/stretchr/testify/require"
)

const ts = "2026-08-31T06:00:00Z"

func testCalculator() Calculator {
	return New(map[string]catalog.Record{
		"gpt-4o": {
			Model:       "gpt-4o",
			PricingType: catalog.Per1MTokens,
			Category:    catalog.LanguageModel,
			Input:       2.5,
			Output:      10,
			CachedInput: 1.25,
			Timestamp:   ts,
		},
		"dall-e-3": {
			Model:       "dall-e-3",
			PricingType: catalog.PerImage,
			Category:    catalog.ImageGeneration,
			Price:       0.04,
			Timestamp:   ts,
		},
		"whisper-1": {
			Model:       "whisper-1",
			PricingType: catalog.PerMinute,
			Category:    catalog.AudioTranscription,
			Price:       0.006,
			Timestamp:   ts,
		},
		"tts-1": {
			Model:       "tts-1",
			PricingType: catalog.Per1KChars,
			Category:    catalog.TextToSpeech,
			Price:       15,
			Timestamp:   ts,
		},
		"gpt-5-nano": {
			Model:       "gpt-5-nano",
			PricingType: catalog.Unknown,
			Category:    catalog.LanguageModel,
			Timestamp:   ts,
		},
	})
}

func TestTokenCost(t *testing.T) {
	calc := testCalculator()

	breakdown, err := calc.Cost("gpt-4o", Usage{
		InputTokens:       500,
		OutputTokens:      1500,
		CachedInputTokens: 1000,
	})
	if err != nil {
		t.Fatal(err)
	}

	require.InDelta(t, 0.00125, breakdown.InputCost, 1e-9)
	require.InDelta(t, 0.015, breakdown.OutputCost, 1e-9)
	require.InDelta(t, 0.00125, breakdown.CachedInputCost, 1e-9)
	require.InDelta(t, 0.0175, breakdown.Total, 1e-9)
}

func TestUnitCost(t *testing.T) {
	calc := testCalculator()

	images, err := calc.Cost("dall-e-3", Usage{Units: 5})
	if err != nil {
		t.Fatal(err)
	}
	require.InDelta(t, 0.2, images.Total, 1e-9)

	minutes, err := calc.Cost("whisper-1", Usage{Units: 15.5})
	if err != nil {
		t.Fatal(err)
	}
	require.InDelta(t, 0.093, minutes.Total, 1e-9)

	chars, err := calc.Cost("tts-1", Usage{Units: 2000})
	if err != nil {
		t.Fatal(err)
	}
	require.InDelta(t, 30, chars.Total, 1e-9)
}

func TestLookupSubstringFallback(t *testing.T) {
	calc := testCalculator()

	record, ok := calc.Lookup("whisper")
	require.True(t, ok)
	require.Equal(t, "whisper-1", record.Model)

	_, ok = calc.Lookup("nonexistent-model")
	require.False(t, ok)
}

func TestUnknownPricingType(t *testing.T) {
	calc := testCalculator()

	_, err := calc.Cost("gpt-5-nano", Usage{InputTokens: 100})
	require.Error(t, err)
}

func TestSuggest(t *testing.T) {
	calc := testCalculator()

	suggestions := calc.Suggest("gpt4o", 3)
	require.Len(t, suggestions, 3)
	require.Equal(t, "gpt-4o", suggestions[0])
}
