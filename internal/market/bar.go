package market

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV observation for a trading pair and timeframe
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is a time-ascending sequence of bars. Detectors treat it as
// immutable; anything that needs derived columns works on its own copy.
type Series []Bar

// Validate checks OHLCV invariants: prices positive, low <= min(open, close),
// high >= max(open, close), timestamps strictly increasing
func (s Series) Validate() error {
	for i, b := range s {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: non-positive price", i)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume", i)
		}
		if b.Low > min(b.Open, b.Close) {
			return fmt.Errorf("bar %d: low %.8f above body", i, b.Low)
		}
		if b.High < max(b.Open, b.Close) {
			return fmt.Errorf("bar %d: high %.8f below body", i, b.High)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high below low", i)
		}
		if i > 0 && !b.Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp not strictly increasing", i)
		}
	}
	return nil
}

// Closes returns the close column as a new slice
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column as a new slice
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column as a new slice
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column as a new slice. When the series carries
// no volume at all (absent or entirely zero) a positive placeholder is
// substituted so downstream ratio math never divides by zero.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	total := 0.0
	for i, b := range s {
		out[i] = b.Volume
		total += b.Volume
	}
	if total == 0 {
		for i := range out {
			out[i] = DefaultVolume
		}
	}
	return out
}

// DefaultVolume is substituted when a series has no usable volume column
const DefaultVolume = 1000

// FilterRange returns the bars whose timestamps fall inside [start, end].
// An empty result falls back to the full series, matching the behavior of
// the filtered analysis endpoint.
func (s Series) FilterRange(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return s
	}
	return out
}
