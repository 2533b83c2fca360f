package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pattern-hero/internal/cache"
	"pattern-hero/internal/database"
	"pattern-hero/internal/market"
	"pattern-hero/internal/patterns"
)

// Persister maps detection records onto the database schema
type Persister struct {
	repo      *database.Repository
	typeCache *cache.PatternTypeCache
	retention time.Duration // 0 disables pruning
	logger    zerolog.Logger
}

func NewPersister(repo *database.Repository, typeCache *cache.PatternTypeCache, retentionDays int, logger zerolog.Logger) *Persister {
	return &Persister{
		repo:      repo,
		typeCache: typeCache,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With().Str("component", "Persister").Logger(),
	}
}

// SaveAnalysis stores the detected patterns plus the candles they were
// detected on. Returns how many patterns were written.
func (p *Persister) SaveAnalysis(ctx context.Context, coinID, timeframe string, series market.Series, records []patterns.Record) (int, error) {
	pair, err := p.ensurePair(ctx, coinID, series)
	if err != nil {
		return 0, err
	}

	if err := p.saveCandles(ctx, pair.ID, timeframe, series); err != nil {
		return 0, err
	}

	saved := 0
	for _, rec := range records {
		dp, err := p.toRow(ctx, pair.ID, timeframe, rec)
		if err != nil {
			p.logger.Debug().Err(err).Str("pattern", rec.Name).Msg("skipping unmappable pattern")
			continue
		}
		if err := p.repo.SaveDetectedPattern(ctx, dp); err != nil {
			return saved, fmt.Errorf("saving pattern %q: %w", rec.Name, err)
		}
		saved++
	}

	p.prune(ctx)
	return saved, nil
}

// prune drops stored detections past the retention window
func (p *Persister) prune(ctx context.Context) {
	if p.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-p.retention)
	removed, err := p.repo.DeleteDetectedPatternsBefore(ctx, cutoff)
	if err != nil {
		p.logger.Warn().Err(err).Msg("pruning old detections failed")
		return
	}
	if removed > 0 {
		p.logger.Debug().Int64("removed", removed).Msg("pruned old detections")
	}
}

func (p *Persister) ensurePair(ctx context.Context, coinID string, series market.Series) (*database.TradingPair, error) {
	pair, err := p.repo.GetTradingPairByCoinID(ctx, coinID)
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	lastClose := series[len(series)-1].Close
	pair = &database.TradingPair{
		CoinID:        coinID,
		Symbol:        coinID,
		BaseCurrency:  coinID,
		QuoteCurrency: "usd",
		Name:          coinID,
		CurrentPrice:  &lastClose,
		Status:        "active",
	}
	if err := p.repo.UpsertTradingPair(ctx, pair); err != nil {
		return nil, fmt.Errorf("creating trading pair %q: %w", coinID, err)
	}
	return pair, nil
}

func (p *Persister) saveCandles(ctx context.Context, pairID int64, timeframe string, series market.Series) error {
	rows := make([]database.OHLCVRow, len(series))
	for i, b := range series {
		rows[i] = database.OHLCVRow{
			TradingPairID: pairID,
			Timestamp:     b.Timestamp,
			Timeframe:     timeframe,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
		}
	}
	return p.repo.SaveOHLCV(ctx, rows)
}

// toRow converts a record into a database row. The end time extends the
// start by the catalog's typical duration in timeframe units.
func (p *Persister) toRow(ctx context.Context, pairID int64, timeframe string, rec patterns.Record) (*database.DetectedPattern, error) {
	start, end := recordSpan(rec)
	if start.IsZero() {
		return nil, fmt.Errorf("record %q carries no coordinates", rec.Name)
	}

	var typeID *int64
	duration := 1
	if pt, err := p.typeCache.Get(ctx, baseName(rec.Name)); err == nil {
		typeID = &pt.ID
		duration = pt.TypicalDuration
	}
	if end.Equal(start) {
		end = start.Add(time.Duration(duration) * timeframeUnit(timeframe))
	}

	coords, err := json.Marshal(rec.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("marshaling coordinates: %w", err)
	}

	dp := &database.DetectedPattern{
		TradingPairID: pairID,
		PatternTypeID: typeID,
		Confidence:    rec.Confidence,
		Direction:     string(rec.Direction),
		StartTime:     start,
		EndTime:       end,
		Timeframe:     timeframe,
		Coordinates:   coords,
	}
	if high, low, ok := recordBounds(rec); ok {
		dp.PatternHigh = &high
		dp.PatternLow = &low
	}
	return dp, nil
}

// baseName strips the merge suffix a harmonic group record carries
func baseName(name string) string {
	for i := 0; i+2 < len(name); i++ {
		if name[i] == ' ' && name[i+1] == '+' {
			return name[:i]
		}
	}
	return name
}

func timeframeUnit(tf string) time.Duration {
	switch tf {
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// recordSpan extracts the time span from the coordinate variant
func recordSpan(rec patterns.Record) (start, end time.Time) {
	switch c := rec.Coordinates.(type) {
	case patterns.PatternRange:
		return c.StartTime, c.EndTime
	case patterns.HorizontalLine:
		return c.StartTime, c.EndTime
	case patterns.HarmonicPattern:
		return c.StartTime, c.EndTime
	case patterns.VolumePattern:
		return c.Timestamp, c.Timestamp
	case patterns.StatisticalPattern:
		return c.Timestamp, c.Timestamp
	default:
		return time.Time{}, time.Time{}
	}
}

// recordBounds extracts price bounds when the coordinate variant has them
func recordBounds(rec patterns.Record) (high, low float64, ok bool) {
	switch c := rec.Coordinates.(type) {
	case patterns.PatternRange:
		return c.PatternHigh, c.PatternLow, true
	case patterns.HorizontalLine:
		return c.Level, c.Level, true
	case patterns.HarmonicPattern:
		if len(c.Points) == 0 {
			return 0, 0, false
		}
		high, low = c.Points[0].Price, c.Points[0].Price
		for _, pt := range c.Points[1:] {
			if pt.Price > high {
				high = pt.Price
			}
			if pt.Price < low {
				low = pt.Price
			}
		}
		return high, low, true
	default:
		return 0, 0, false
	}
}
