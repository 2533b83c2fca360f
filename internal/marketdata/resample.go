package marketdata

import (
	"time"

	"pattern-hero/internal/market"
)

// Resample buckets bars into fixed intervals, aggregating open from the
// first bar, close from the last, high/low from the extremes, and summing
// volume. Input must already be in ascending time order.
func Resample(series market.Series, interval time.Duration) market.Series {
	if len(series) == 0 || interval <= 0 {
		return series
	}

	var out market.Series
	var current market.Bar
	var bucket time.Time
	open := false

	for _, b := range series {
		key := b.Timestamp.Truncate(interval)
		if !open || !key.Equal(bucket) {
			if open {
				out = append(out, current)
			}
			bucket = key
			current = market.Bar{
				Timestamp: key,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			}
			open = true
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}
	if open {
		out = append(out, current)
	}
	return out
}

// IntervalForTimeframe maps the API timeframe names to bucket sizes.
// Unknown names fall back to daily.
func IntervalForTimeframe(tf string) time.Duration {
	switch tf {
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}
