package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleModels(ts string) map[string]Record {
	return map[string]Record{
		"gpt-4o": {
			Model:       "gpt-4o",
			PricingType: Per1MTokens,
			Category:    LanguageModel,
			Input:       2.5,
			Output:      10,
			Timestamp:   ts,
		},
		"dall-e-3": {
			Model:       "dall-e-3",
			PricingType: PerImage,
			Category:    ImageGeneration,
			Price:       0.04,
			Timestamp:   ts,
		},
	}
}

func TestBuild(t *testing.T) {
	capturedAt := time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)
	cat := Build(sampleModels(Timestamp(capturedAt)), capturedAt)

	require.Equal(t, len(cat.Models), cat.ModelsCount)
	require.Equal(t, Source, cat.Source)
	require.Equal(t, "2026-08-31T06:30:00Z", cat.Timestamp)
	require.Equal(t, "2026-08-31", cat.Date())
}

func TestSimplifiedKeepsShape(t *testing.T) {
	capturedAt := time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)
	cat := Build(sampleModels(Timestamp(capturedAt)), capturedAt)
	view := cat.Simplified()

	require.Equal(t, cat.Models, view.Models)
	require.Equal(t, cat.Timestamp, view.Timestamp)
	require.Equal(t, cat.Timestamp, view.LastUpdated)
	require.Equal(t, cat.ModelsCount, view.ModelsCount)
	require.Equal(t, cat.Source, view.Source)
}

func TestRecordOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(Record{
		Model:       "dall-e-3",
		PricingType: PerImage,
		Category:    ImageGeneration,
		Price:       0.04,
		Timestamp:   "2026-08-31T06:30:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	err = json.Unmarshal(data, &fields)
	if err != nil {
		t.Fatal(err)
	}
	require.NotContains(t, fields, "input")
	require.NotContains(t, fields, "output")
	require.NotContains(t, fields, "cached_input")
	require.Contains(t, fields, "price")
}

func TestDateFallsBackToPrefix(t *testing.T) {
	cat := Catalog{Timestamp: "2026-08-31 oddly formatted"}
	require.Equal(t, "2026-08-31", cat.Date())
}
