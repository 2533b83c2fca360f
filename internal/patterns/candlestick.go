package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
)

// CandleHit is one recognized candle shape occurrence. Score maps directly
// to confidence; a library-backed recognizer converts its signed strength
// output into (score magnitude, direction) when producing hits.
type CandleHit struct {
	Name      string
	Index     int
	Score     int
	Direction Direction
}

// CandleRecognizer is the capability interface for candle shape
// recognition. The shipped implementation is the heuristic ratio-based
// recognizer; a library-backed one can be swapped in at construction time.
type CandleRecognizer interface {
	Recognize(series market.Series) []CandleHit
}

// CandlestickDetector maps recognizer hits to pattern records
type CandlestickDetector struct {
	recognizer CandleRecognizer
	logger     zerolog.Logger
}

// NewCandlestickDetector creates a detector backed by the given recognizer,
// defaulting to the heuristic recognizer
func NewCandlestickDetector(recognizer CandleRecognizer, logger zerolog.Logger) *CandlestickDetector {
	if recognizer == nil {
		recognizer = HeuristicRecognizer{}
	}
	return &CandlestickDetector{
		recognizer: recognizer,
		logger:     logger.With().Str("component", "CandlestickDetector").Logger(),
	}
}

// Detect evaluates the most recent occurrence of every recognized shape
// family and returns records sorted descending by confidence
func (d *CandlestickDetector) Detect(series market.Series) []Record {
	if len(series) < 3 {
		return nil
	}

	hits := d.recognizer.Recognize(series)
	records := make([]Record, 0, len(hits))
	for _, hit := range hits {
		records = append(records, NewRecord(
			hit.Name,
			CategoryCandle,
			hit.Score,
			hit.Direction,
			fmt.Sprintf("A %s %s pattern detected", hit.Direction, strings.ToLower(hit.Name)),
			candleRangeCoords(series, hit.Index, hit.Name, hit.Direction),
		))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Confidence > records[j].Confidence
	})
	return records
}

// candleDuration returns how many candles a named shape spans
func candleDuration(name string) int {
	switch name {
	case "Doji", "Hammer", "Hanging Man", "Shooting Star",
		"Dragonfly Doji", "Gravestone Doji", "Marubozu", "Spinning Top":
		return 1
	case "Engulfing Pattern", "Piercing Pattern", "Dark Cloud Cover",
		"Harami Pattern", "Harami Cross", "Thrusting Pattern":
		return 2
	default:
		return 3
	}
}

// candleRangeCoords builds the highlight span for a candle hit, covering
// [index-duration+1, index]
func candleRangeCoords(series market.Series, index int, name string, direction Direction) Coordinates {
	duration := candleDuration(name)
	start := index - duration + 1
	if start < 0 {
		start = 0
	}
	high := series[start].High
	low := series[start].Low
	for i := start + 1; i <= index; i++ {
		if series[i].High > high {
			high = series[i].High
		}
		if series[i].Low < low {
			low = series[i].Low
		}
	}
	return PatternRange{
		Type:           "pattern_range",
		StartIndex:     start,
		EndIndex:       index,
		StartTime:      series[start].Timestamp,
		EndTime:        series[index].Timestamp,
		PatternHigh:    high,
		PatternLow:     low,
		HighlightColor: directionColor(direction),
		PatternName:    name,
	}
}
