// Package marketdata supplies OHLCV series, fetched from the CoinGecko
// API with a deterministic synthetic generator as fallback so analysis
// keeps working without upstream access.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"pattern-hero/config"
	"pattern-hero/internal/market"
)

// Provider fetches daily OHLCV bars for a coin
type Provider interface {
	FetchOHLCV(ctx context.Context, coinID string, days int) (market.Series, error)
}

// Client talks to the CoinGecko OHLC endpoint and falls back to the
// synthetic generator when the upstream call fails or mock mode is on
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	mockMode  bool
	synthetic *SyntheticProvider
	logger    zerolog.Logger
}

func NewClient(cfg config.MarketDataConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		mockMode:  cfg.MockMode,
		synthetic: NewSyntheticProvider(),
		logger:    logger.With().Str("component", "MarketDataClient").Logger(),
	}
}

// FetchOHLCV returns daily bars for the coin. Upstream failures degrade to
// synthetic data instead of failing the analysis.
func (c *Client) FetchOHLCV(ctx context.Context, coinID string, days int) (market.Series, error) {
	if days <= 0 {
		days = 90
	}
	if c.mockMode {
		return c.synthetic.FetchOHLCV(ctx, coinID, days)
	}

	series, err := c.fetchRemote(ctx, coinID, days)
	if err == nil {
		return series, nil
	}

	// some windows fail on their own (sparse coins, plan limits), so try a
	// shorter one before giving up on the upstream entirely
	for _, retry := range []int{30, 14} {
		if retry >= days {
			continue
		}
		if series, rerr := c.fetchRemote(ctx, coinID, retry); rerr == nil {
			c.logger.Warn().
				Str("coin_id", coinID).
				Int("days", retry).
				Msg("requested window failed, serving a shorter one")
			return series, nil
		}
	}

	c.logger.Warn().
		Err(err).
		Str("coin_id", coinID).
		Msg("upstream fetch failed, using synthetic data")
	return c.synthetic.FetchOHLCV(ctx, coinID, days)
}

func (c *Client) fetchRemote(ctx context.Context, coinID string, days int) (market.Series, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%d",
		c.baseURL, url.PathEscape(coinID), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching ohlcv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, body)
	}

	// response shape: [[timestamp_ms, open, high, low, close], ...]
	var raw [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding ohlcv response: %w", err)
	}

	series := make(market.Series, 0, len(raw))
	for _, row := range raw {
		if len(row) < 5 {
			continue
		}
		series = append(series, market.Bar{
			Timestamp: time.UnixMilli(int64(row[0])).UTC(),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
		})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("upstream series invalid: %w", err)
	}
	return series, nil
}
