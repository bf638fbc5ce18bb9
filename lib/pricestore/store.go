package pricestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"pricewatch/lib/catalog"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/pricestore")

// Published artifact names, relative to the store directory.
const (
	PricingFile = "pricing.json"
	APIFile     = "api.json"
	HistoryFile = "history.json"
)

// DefaultCap is how many days of history are retained.
const DefaultCap = 90

// WriteError is a publish-stage filesystem failure. Writes are staged
// through temp files, so a WriteError never leaves a half-written
// artifact in place of a previously valid one.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %s", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Entry is one day's catalog snapshot inside the history file.
type Entry struct {
	Date        string                    `json:"date"`
	Timestamp   string                    `json:"timestamp"`
	Models      map[string]catalog.Record `json:"models"`
	ModelsCount int                       `json:"models_count"`
}

// History holds at most one entry per calendar date, newest first.
type History []Entry

type Store struct {
	Dir string
	Cap int
}

func NewStore(dir string, days int) Store {
	if days <= 0 {
		days = DefaultCap
	}
	return Store{Dir: dir, Cap: days}
}

// LoadHistory reads the persisted history. An absent file is an empty
// history, not an error.
func (s Store) LoadHistory(ctx context.Context) (History, error) {
	path := filepath.Join(s.Dir, HistoryFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var history History
	err = json.Unmarshal(data, &history)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return history, nil
}

// Merge folds a new catalog into the history: a same-day re-run replaces
// that day's entry instead of appending, entries stay sorted by date
// descending and anything past the cap is dropped.
func (s Store) Merge(history History, cat catalog.Catalog) History {
	entry := Entry{
		Date:        cat.Date(),
		Timestamp:   cat.Timestamp,
		Models:      cat.Models,
		ModelsCount: cat.ModelsCount,
	}

	replaced := false
	for i := range history {
		if history[i].Date == entry.Date {
			history[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, entry)
	}

	// ISO dates sort lexicographically
	slices.SortFunc(history, func(a, b Entry) int {
		return strings.Compare(b.Date, a.Date)
	})

	if len(history) > s.Cap {
		history = history[:s.Cap]
	}
	return history
}

// Publish writes all three artifacts. Each file is staged next to its
// target and renamed over it, so a concurrent reader never observes a
// partial file.
func (s Store) Publish(ctx context.Context, cat catalog.Catalog, history History) error {
	ctx, span := tracer.Start(ctx, "Publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("dir", s.Dir),
		attribute.Int("models_count", cat.ModelsCount),
		attribute.Int("history_days", len(history)),
	)

	err := os.MkdirAll(s.Dir, 0o755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create output dir")
		return &WriteError{Path: s.Dir, Err: err}
	}

	files := []struct {
		name string
		data any
	}{
		{PricingFile, cat},
		{APIFile, cat.Simplified()},
		{HistoryFile, history},
	}
	for _, f := range files {
		path := filepath.Join(s.Dir, f.name)
		err := writeJSONAtomic(path, f.data)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			return err
		}
		slog.InfoContext(ctx, "published artifact", "path", path)
	}

	return nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	suffix, err := random.String(8)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, suffix)

	err = os.WriteFile(tmp, data, 0o644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
