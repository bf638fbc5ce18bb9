package openaipricing

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pricewatch/lib/catalog"
	"pricewatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/openaipricing")

// ExtractionError means the page yielded zero records, which almost
// always signals that the page structure changed. The run must abort
// before publishing so the previous good snapshot stays in place.
var ExtractionError = errors.New("no pricing records extracted, page structure may have changed")

// Extract parses the rendered pricing page into a mapping of model name
// to pricing record. Extraction is best-effort per row: a row whose
// amounts cannot be parsed produces a record with pricing_type "unknown"
// and no numeric fields instead of failing the run. Every record is
// stamped with the same capture time.
func Extract(ctx context.Context, page string, capturedAt time.Time) (map[string]catalog.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	models := map[string]catalog.Record{}
	timestamp := catalog.Timestamp(capturedAt)

	doc.Find("table").Each(func(tableIdx int, table *goquery.Selection) {
		headers := headerCells(table)
		if !isPricingTable(headers) {
			slog.DebugContext(ctx, "skipping table without pricing headers", "table", tableIdx)
			return
		}

		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			// the first row carries the headers
			if rowIdx == 0 {
				return
			}
			record, ok := extractRow(headers, row, timestamp)
			if !ok {
				return
			}
			// duplicate model names: last occurrence wins
			models[record.Model] = record
		})
	})

	span.SetAttributes(attribute.Int("models_count", len(models)))

	if len(models) == 0 {
		span.SetStatus(codes.Error, ExtractionError.Error())
		return nil, ExtractionError
	}

	slog.InfoContext(ctx, "extracted pricing records", "models_count", len(models))
	return models, nil
}

// headerCells returns the lowercased header texts of a table, taken from
// its thead if it has one, otherwise from its first row.
func headerCells(table *goquery.Selection) []string {
	headerRow := table.Find("thead")
	if headerRow.Length() == 0 {
		headerRow = table.Find("tr").First()
	}

	var headers []string
	headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.ToLower(cellText(cell)))
	})
	return headers
}

// cellText flattens a cell's text nodes and normalizes the result.
// Rendered cells nest their content in spans and tooltips, so the raw
// markup is never usable directly.
func cellText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for _, node := range sel.Nodes {
		buffer.WriteString(htmlutil.GetText(node))
	}
	return htmlutil.CleanText(buffer.String())
}

func isPricingTable(headers []string) bool {
	joined := strings.Join(headers, " ")
	for _, keyword := range []string{"model", "input", "output", "price"} {
		if strings.Contains(joined, keyword) {
			return true
		}
	}
	return false
}

func extractRow(headers []string, row *goquery.Selection, timestamp string) (catalog.Record, bool) {
	cells := row.Find("td, th")
	if cells.Length() < 2 {
		return catalog.Record{}, false
	}

	name := cellText(cells.First())
	if !validModelName(name) {
		return catalog.Record{}, false
	}

	record := catalog.Record{
		Model:       name,
		PricingType: catalog.Unknown,
		Timestamp:   timestamp,
	}

	for idx, header := range headers {
		if idx >= cells.Length() {
			break
		}
		amount := parsePrice(cellText(cells.Eq(idx)))
		if amount <= 0 {
			continue
		}

		switch {
		case strings.Contains(header, "cached input"):
			record.CachedInput = amount
		case strings.Contains(header, "input"):
			record.Input = amount
			record.PricingType = catalog.Per1MTokens
		case strings.Contains(header, "output"):
			record.Output = amount
			record.PricingType = catalog.Per1MTokens
		case strings.Contains(header, "minute"):
			record.Price = amount
			record.PricingType = catalog.PerMinute
		case strings.Contains(header, "second"):
			record.Price = amount
			record.PricingType = catalog.PerSecond
		case strings.Contains(header, "price"):
			record.Price = amount
		}
	}

	if record.PricingType == catalog.Unknown && record.Price > 0 {
		record.PricingType = classifyPricingType(name)
		if record.PricingType == catalog.Per1MTokens {
			// token-priced records never carry a bare price, the
			// single column of a token table is the input rate
			record.Input = record.Price
			record.Price = 0
		}
	}
	record.Category = classifyCategory(name)

	return record, true
}

// validModelName filters out header echoes, separator rows and other
// cells that name no actual model.
func validModelName(name string) bool {
	if len(name) < 3 {
		return false
	}
	switch strings.ToLower(name) {
	case "model", "models", "tier":
		return false
	}
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			return true
		}
	}
	return false
}

var priceJunk = regexp.MustCompile(`[$\s,]`)
var priceNumber = regexp.MustCompile(`\d+\.?\d*`)

// parsePrice extracts the first dollar amount out of cell text like
// "$2.50 / 1M tokens". Returns 0 when there is none.
func parsePrice(text string) float64 {
	cleaned := priceJunk.ReplaceAllString(text, "")
	match := priceNumber.FindString(cleaned)
	if match == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return amount
}
