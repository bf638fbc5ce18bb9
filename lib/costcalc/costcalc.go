package costcalc

import (
	"fmt"
	"slices"
	"strings"

	"pricewatch/lib/catalog"

	"github.com/antzucaro/matchr"
)

// Calculator prices API usage against a published catalog.
type Calculator struct {
	models map[string]catalog.Record
}

func New(models map[string]catalog.Record) Calculator {
	return Calculator{models: models}
}

// Lookup finds a model by exact name, falling back to a
// case-insensitive substring match.
func (c Calculator) Lookup(name string) (catalog.Record, bool) {
	record, ok := c.models[name]
	if ok {
		return record, true
	}

	lower := strings.ToLower(name)
	keys := make([]string, 0, len(c.models))
	for key := range c.models {
		keys = append(keys, key)
	}
	// deterministic fallback when several names contain the query
	slices.Sort(keys)
	for _, key := range keys {
		if strings.Contains(strings.ToLower(key), lower) {
			return c.models[key], true
		}
	}

	return catalog.Record{}, false
}

// Suggest returns up to n known model names ranked by similarity to the
// query, for "did you mean" output on a failed lookup.
func (c Calculator) Suggest(name string, n int) []string {
	type scored struct {
		name       string
		similarity float64
	}

	var candidates []scored
	lower := strings.ToLower(name)
	for key := range c.models {
		candidates = append(candidates, scored{
			name:       key,
			similarity: matchr.JaroWinkler(lower, strings.ToLower(key), false),
		})
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if a.similarity > b.similarity {
			return -1
		}
		if a.similarity < b.similarity {
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}

// Usage describes one hypothetical API call.
type Usage struct {
	InputTokens       int64
	OutputTokens      int64
	CachedInputTokens int64
	// Units is the count of whatever the model bills by: images,
	// seconds, minutes or characters.
	Units float64
}

type Breakdown struct {
	Record          catalog.Record
	InputCost       float64
	OutputCost      float64
	CachedInputCost float64
	UnitCost        float64
	Total           float64
}

// Cost computes the dollar cost of usage against the named model.
func (c Calculator) Cost(name string, usage Usage) (Breakdown, error) {
	record, ok := c.Lookup(name)
	if !ok {
		return Breakdown{}, fmt.Errorf("model %q not found in pricing data", name)
	}

	out := Breakdown{Record: record}
	switch record.PricingType {
	case catalog.Per1MTokens:
		out.InputCost = float64(usage.InputTokens) / 1_000_000 * record.Input
		out.OutputCost = float64(usage.OutputTokens) / 1_000_000 * record.Output
		out.CachedInputCost = float64(usage.CachedInputTokens) / 1_000_000 * record.CachedInput
	case catalog.PerImage, catalog.PerSecond, catalog.PerMinute:
		out.UnitCost = usage.Units * record.Price
	case catalog.Per1KChars:
		out.UnitCost = usage.Units / 1000 * record.Price
	default:
		return Breakdown{}, fmt.Errorf("model %q has no usable pricing (type %q)", record.Model, record.PricingType)
	}

	out.Total = out.InputCost + out.OutputCost + out.CachedInputCost + out.UnitCost
	return out, nil
}
