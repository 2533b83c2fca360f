package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pattern-hero/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.MarketDataConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestFetchOHLCVDecodesAndSorts(t *testing.T) {
	// rows deliberately out of order; the client must sort ascending
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/ohlc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("days query %q, want 7", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1700092800000, 102, 106, 101, 105],
			[1700006400000, 100, 104, 99, 102]
		]`))
	}))
	defer srv.Close()

	series, err := newTestClient(srv.URL).FetchOHLCV(context.Background(), "bitcoin", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series))
	}
	if !series[0].Timestamp.Before(series[1].Timestamp) {
		t.Error("bars not sorted ascending")
	}
	if series[0].Open != 100 || series[0].Close != 102 {
		t.Errorf("first bar %+v, want open 100 close 102", series[0])
	}
}

func TestFetchOHLCVFallsBackOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	series, err := newTestClient(srv.URL).FetchOHLCV(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("fallback should never surface an error, got %v", err)
	}
	if len(series) != 30 {
		t.Fatalf("expected 30 synthetic bars, got %d", len(series))
	}
	if err := series.Validate(); err != nil {
		t.Errorf("fallback series failed validation: %v", err)
	}
}

func TestFetchOHLCVFallsBackOnInvalidData(t *testing.T) {
	// high below the body violates the series invariants
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700006400000, 100, 90, 99, 102]]`))
	}))
	defer srv.Close()

	series, err := newTestClient(srv.URL).FetchOHLCV(context.Background(), "bitcoin", 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 14 {
		t.Errorf("expected 14 synthetic bars after rejecting bad data, got %d", len(series))
	}
}

func TestFetchOHLCVSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`[[1700006400000, 100, 104, 99, 102]]`))
	}))
	defer srv.Close()

	c := NewClient(config.MarketDataConfig{
		BaseURL:        srv.URL,
		APIKey:         "demo-key",
		RequestTimeout: 5 * time.Second,
	}, zerolog.Nop())

	if _, err := c.FetchOHLCV(context.Background(), "bitcoin", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "demo-key" {
		t.Errorf("api key header %q, want demo-key", gotKey)
	}
}

func TestFetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1,"current_price":65000,"market_cap":1.2e12},
			{"id":"","symbol":"bad","name":"missing id"}
		]`))
	}))
	defer srv.Close()

	pairs, err := newTestClient(srv.URL).FetchMarkets(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected the entry without an id to be dropped, got %d pairs", len(pairs))
	}
	if pairs[0].CoinID != "bitcoin" || pairs[0].MarketCapRank != 1 {
		t.Errorf("unexpected pair %+v", pairs[0])
	}
}

func TestFetchMarketsErrorsOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchMarkets(context.Background(), 10); err == nil {
		t.Error("expected an error from a failing upstream")
	}
}

func TestMockModeSkipsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mock mode must not call upstream")
	}))
	defer srv.Close()

	c := NewClient(config.MarketDataConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		MockMode:       true,
	}, zerolog.Nop())

	series, err := c.FetchOHLCV(context.Background(), "bitcoin", 10)
	if err != nil || len(series) != 10 {
		t.Fatalf("mock fetch: %d bars, err %v", len(series), err)
	}
	if pairs, _ := c.FetchMarkets(context.Background(), 5); len(pairs) == 0 {
		t.Error("mock markets listing empty")
	}
}
