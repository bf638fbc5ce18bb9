package openaipricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pricewatch/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// DefaultURL is the public pricing page the catalog is scraped from.
const DefaultURL = "https://platform.openai.com/docs/pricing"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/112.0.0.0 Safari/537.36"

// FetchError is returned once all fetch attempts are exhausted. It is
// run-fatal: the pipeline never publishes on a failed fetch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	// render the page in headless Chrome before reading it. The
	// pricing numbers are client-rendered, so a plain GET only works
	// against saved or pre-rendered copies.
	Render   bool
	Attempts int
	Backoff  time.Duration
	// how long to wait for initial navigation
	NavigationTimeout time.Duration
	// how long to wait for client-side rendering to settle
	SettleTimeout time.Duration

	http *resty.Client
}

func NewFetcher(render bool) *Fetcher {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(time.Second * 60)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scrapers/openaipricing/http")

	return &Fetcher{
		Render:            render,
		Attempts:          3,
		Backoff:           time.Second * 5,
		NavigationTimeout: time.Second * 60,
		SettleTimeout:     time.Second * 30,
		http:              client,
	}
}

// FetchPage retrieves the fully rendered page content for link. Retries
// transparently on transient failure; once attempts are exhausted the
// last error is wrapped in a FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, link string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()

	attempts := f.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			slog.WarnContext(ctx, "retrying fetch", "attempt", attempt+1, "err", lastErr)
			select {
			case <-time.After(f.Backoff * time.Duration(attempt)):
			case <-ctx.Done():
				err := &FetchError{URL: link, Err: ctx.Err()}
				span.RecordError(err)
				span.SetStatus(codes.Error, "fetch cancelled")
				return "", err
			}
		}

		var content string
		var err error
		if f.Render {
			content, err = f.fetchRendered(ctx, link)
		} else {
			content, err = f.fetchStatic(ctx, link)
		}
		if err == nil {
			slog.InfoContext(ctx, "fetched pricing page", "url", link, "bytes", len(content))
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	err := &FetchError{URL: link, Err: lastErr}
	span.RecordError(err)
	span.SetStatus(codes.Error, "fetch attempts exhausted")
	return "", err
}

func (f *Fetcher) fetchRendered(ctx context.Context, link string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("accept-lang", "en-US,en;q=0.9"),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, f.NavigationTimeout)
	defer cancelNav()

	err := chromedp.Run(navCtx, chromedp.Navigate(link))
	if err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	// pricing tables are rendered client-side, wait until the page has
	// substantial text before reading it
	var settled bool
	err = chromedp.Run(browserCtx, chromedp.Poll(
		`document.body && document.body.innerText.trim().length > 1000`,
		&settled,
		chromedp.WithPollingTimeout(f.SettleTimeout),
	))
	if err != nil {
		slog.WarnContext(ctx, "content settle wait failed, continuing with current DOM", "err", err)
	}

	var content string
	err = chromedp.Run(browserCtx,
		chromedp.Sleep(time.Second*2),
		chromedp.OuterHTML("html", &content),
	)
	if err != nil {
		return "", fmt.Errorf("read rendered page: %w", err)
	}
	return content, nil
}

func (f *Fetcher) fetchStatic(ctx context.Context, link string) (string, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return "", err
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return "", fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	return res.String(), nil
}
