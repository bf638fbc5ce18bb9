package tracker

import (
	"context"
	"log/slog"
	"time"

	"pricewatch/lib/catalog"
	"pricewatch/lib/pricestore"
	"pricewatch/lib/scrapers/openaipricing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/tracker")

type Options struct {
	SourceURL  string
	OutputDir  string
	HistoryCap int
	// render the page in headless Chrome. Disable only against saved
	// or pre-rendered pages.
	Render bool
}

// Service runs the whole fetch-extract-build-merge-publish cycle. One
// call to RunOnce is one scheduler tick; invocations are serialized by
// the external scheduler.
type Service struct {
	url     string
	fetcher *openaipricing.Fetcher
	store   pricestore.Store
}

func NewService(opts Options) Service {
	url := opts.SourceURL
	if url == "" {
		url = openaipricing.DefaultURL
	}
	return Service{
		url:     url,
		fetcher: openaipricing.NewFetcher(opts.Render),
		store:   pricestore.NewStore(opts.OutputDir, opts.HistoryCap),
	}
}

// RunOnce executes a single pipeline pass. Any error aborts before
// publish, leaving the previously published artifacts untouched.
func (s Service) RunOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RunOnce")
	defer span.End()
	span.SetAttributes(attribute.String("source_url", s.url))

	page, err := s.fetcher.FetchPage(ctx, s.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}

	capturedAt := time.Now()
	models, err := openaipricing.Extract(ctx, page, capturedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return err
	}

	cat := catalog.Build(models, capturedAt)

	history, err := s.store.LoadHistory(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load history")
		return err
	}
	history = s.store.Merge(history, cat)

	err = s.store.Publish(ctx, cat, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return err
	}

	slog.InfoContext(ctx, "run complete",
		"models_count", cat.ModelsCount,
		"history_days", len(history),
	)
	return nil
}
