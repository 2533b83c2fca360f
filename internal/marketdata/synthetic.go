package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"pattern-hero/internal/market"
)

// SyntheticProvider generates a deterministic random walk per coin so the
// same coin always yields the same series within a day
type SyntheticProvider struct{}

func NewSyntheticProvider() *SyntheticProvider { return &SyntheticProvider{} }

// FetchOHLCV builds one daily bar per requested day, ending at the most
// recent UTC midnight
func (p *SyntheticProvider) FetchOHLCV(_ context.Context, coinID string, days int) (market.Series, error) {
	if days <= 0 {
		days = 90
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days+1)

	rng := rand.New(rand.NewSource(seedFor(coinID, end)))
	price := 50 + rng.Float64()*950

	series := make(market.Series, 0, days)
	for d := 0; d < days; d++ {
		drift := rng.NormFloat64() * 0.02
		open := price
		close := open * (1 + drift)
		if close <= 0 {
			close = open * 0.5
		}
		high := math.Max(open, close) * (1 + rng.Float64()*0.015)
		low := math.Min(open, close) * (1 - rng.Float64()*0.015)
		volume := 1000 + rng.Float64()*9000

		series = append(series, market.Bar{
			Timestamp: start.AddDate(0, 0, d),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
		price = close
	}
	return series, nil
}

// seedFor mixes the coin id with the series end date, keeping generated
// data stable across calls within the same day
func seedFor(coinID string, end time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(coinID))
	h.Write([]byte(end.Format("2006-01-02")))
	return int64(h.Sum64())
}
