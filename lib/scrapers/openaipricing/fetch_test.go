package openaipricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchPageStatic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pricingPage))
	}))
	defer server.Close()

	fetcher := NewFetcher(false)
	content, err := fetcher.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, content, "gpt-4o")
}

func TestFetchPageRetriesThenFails(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(false)
	fetcher.Attempts = 3
	fetcher.Backoff = time.Millisecond

	_, err := fetcher.FetchPage(context.Background(), server.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, server.URL, fetchErr.URL)
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchPageRecoversOnRetry(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(false)
	fetcher.Backoff = time.Millisecond

	content, err := fetcher.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, content, "recovered")
}
