// Package service orchestrates market data retrieval, pattern detection,
// and optional persistence of the results.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
	"pattern-hero/internal/marketdata"
	"pattern-hero/internal/patterns"
)

// MarketData echoes the analyzed series back to the caller alongside the
// detection results
type MarketData struct {
	CoinID    string       `json:"coin_id"`
	Timeframe string       `json:"timeframe"`
	Bars      int          `json:"bars"`
	From      time.Time    `json:"from"`
	To        time.Time    `json:"to"`
	LastClose float64      `json:"last_close"`
	Series    market.Series `json:"series,omitempty"`
}

// Analysis is one complete run over a coin
type Analysis struct {
	ID         string            `json:"analysis_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	MarketData MarketData        `json:"market_data"`
	Patterns      []patterns.Record `json:"patterns"`
	TotalDetected int               `json:"total_patterns_detected"`
	Stats         patterns.Stats    `json:"statistics"`
	Strongest     *patterns.Record  `json:"strongest_pattern,omitempty"`
	Persisted     int               `json:"persisted,omitempty"`
}

// Analyzer glues the data provider and the aggregator together
type Analyzer struct {
	provider   marketdata.Provider
	aggregator *patterns.Aggregator
	persister  *Persister // nil when the database is disabled
	logger     zerolog.Logger
}

func NewAnalyzer(provider marketdata.Provider, aggregator *patterns.Aggregator, persister *Persister, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider:   provider,
		aggregator: aggregator,
		persister:  persister,
		logger:     logger.With().Str("component", "Analyzer").Logger(),
	}
}

// Request parameterizes one analysis run
type Request struct {
	CoinID        string
	Timeframe     string // 1d, 4h, 1h
	Days          int
	IncludeSeries bool
	Persist       bool
	Start, End    time.Time // optional window filter, zero means full range
}

// Analyze fetches candles, resamples to the requested timeframe, runs every
// detector, and optionally persists the hits
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if req.CoinID == "" {
		return nil, fmt.Errorf("coin id is required")
	}
	if req.Timeframe == "" {
		req.Timeframe = "1d"
	}

	series, err := a.provider.FetchOHLCV(ctx, req.CoinID, req.Days)
	if err != nil {
		return nil, fmt.Errorf("fetching market data for %s: %w", req.CoinID, err)
	}
	if interval := marketdata.IntervalForTimeframe(req.Timeframe); interval < 24*time.Hour {
		series = marketdata.Resample(series, interval)
	}
	series = series.FilterRange(req.Start, req.End)
	if len(series) == 0 {
		return nil, fmt.Errorf("no market data for %s", req.CoinID)
	}

	result := a.aggregator.Analyze(series)

	analysis := &Analysis{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		MarketData: MarketData{
			CoinID:    req.CoinID,
			Timeframe: req.Timeframe,
			Bars:      len(series),
			From:      series[0].Timestamp,
			To:        series[len(series)-1].Timestamp,
			LastClose: series[len(series)-1].Close,
		},
		Patterns:      result.Patterns,
		TotalDetected: result.TotalDetected,
		Stats:         result.Stats,
		Strongest:     result.Strongest,
	}
	if req.IncludeSeries {
		analysis.MarketData.Series = series
	}

	if req.Persist && a.persister != nil {
		saved, err := a.persister.SaveAnalysis(ctx, req.CoinID, req.Timeframe, series, result.Patterns)
		if err != nil {
			// persistence is best effort, the analysis still stands
			a.logger.Warn().Err(err).Str("coin_id", req.CoinID).Msg("failed to persist analysis")
		}
		analysis.Persisted = saved
	}

	a.logger.Info().
		Str("analysis_id", analysis.ID).
		Str("coin_id", req.CoinID).
		Str("timeframe", req.Timeframe).
		Int("patterns", len(result.Patterns)).
		Msg("analysis complete")
	return analysis, nil
}
