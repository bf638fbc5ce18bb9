package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"pricewatch/lib/catalog"
	"pricewatch/lib/pricestore"
	"pricewatch/lib/scrapers/openaipricing"
	"pricewatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testPage = `<html><body>
<table>
  <thead><tr><th>Model</th><th>Input</th><th>Output</th></tr></thead>
  <tbody>
    <tr><td>gpt-4o</td><td>$2.50</td><td>$10.00</td></tr>
    <tr><td>gpt-4o-mini</td><td>$0.15</td><td>$0.60</td></tr>
  </tbody>
</table>
</body></html>`

const emptyPage = `<html><body><p>page moved</p></body></html>`

func TestRunOnce(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/tracker")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	ctx := context.Background()
	dir := t.TempDir()
	service := NewService(Options{
		SourceURL: server.URL,
		OutputDir: dir,
		Render:    false,
	})

	err := service.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var published catalog.Catalog
	data, err := os.ReadFile(filepath.Join(dir, pricestore.PricingFile))
	if err != nil {
		t.Fatal(err)
	}
	err = json.Unmarshal(data, &published)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, published.ModelsCount)
	require.Equal(t, catalog.Source, published.Source)
	require.Equal(t, 2.5, published.Models["gpt-4o"].Input)

	var history pricestore.History
	data, err = os.ReadFile(filepath.Join(dir, pricestore.HistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	err = json.Unmarshal(data, &history)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, history, 1)
	require.Equal(t, 2, history[0].ModelsCount)

	// a second run the same day replaces today's entry instead of
	// appending
	err = service.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(filepath.Join(dir, pricestore.HistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	err = json.Unmarshal(data, &history)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, history, 1)
}

func TestRunOnceAbortsWithoutPublishing(t *testing.T) {
	var broken atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.Write([]byte(emptyPage))
			return
		}
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	ctx := context.Background()
	dir := t.TempDir()
	service := NewService(Options{
		SourceURL: server.URL,
		OutputDir: dir,
		Render:    false,
	})

	err := service.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}

	before := map[string][]byte{}
	for _, name := range []string{pricestore.PricingFile, pricestore.APIFile, pricestore.HistoryFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		before[name] = data
	}

	// page drifts to a structure the extractor does not recognize:
	// the run aborts and the published artifacts stay untouched
	broken.Store(true)
	err = service.RunOnce(ctx)
	require.ErrorIs(t, err, openaipricing.ExtractionError)

	for name, want := range before {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, want, got, "%s changed after aborted run", name)
	}
}
