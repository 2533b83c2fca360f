package patterns

import (
	"testing"

	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestCandlestickDetectorTooShort(t *testing.T) {
	d := NewCandlestickDetector(nil, testLogger())
	series := market.Series{
		barAt(0, 100, 105, 99, 104),
		barAt(1, 104, 108, 103, 107),
	}
	if got := d.Detect(series); got != nil {
		t.Errorf("expected nil for short series, got %v", got)
	}
}

func TestRecognizeHammer(t *testing.T) {
	series := market.Series{
		barAt(0, 110, 111, 104, 105), // down candle sets the context
		barAt(1, 108, 109, 103, 104),
		barAt(2, 104, 104.25, 96, 104.2), // long lower shadow, tiny body
	}

	hits := HeuristicRecognizer{}.Recognize(series)
	var hammer *CandleHit
	for i := range hits {
		if hits[i].Name == "Hammer" {
			hammer = &hits[i]
		}
	}
	if hammer == nil {
		t.Fatalf("hammer not recognized in %v", hits)
	}
	if hammer.Index != 2 {
		t.Errorf("hammer at index %d, want 2", hammer.Index)
	}
	if hammer.Direction != Bullish {
		t.Errorf("hammer direction %s, want bullish", hammer.Direction)
	}
}

func TestRecognizeBullishEngulfing(t *testing.T) {
	series := market.Series{
		barAt(0, 110, 111, 104, 105),
		barAt(1, 105, 106, 102, 103), // bear candle
		barAt(2, 102, 108, 101, 107), // bull body engulfs it
	}

	hits := HeuristicRecognizer{}.Recognize(series)
	found := false
	for _, h := range hits {
		if h.Name == "Engulfing Pattern" {
			found = true
			if h.Direction != Bullish {
				t.Errorf("engulfing direction %s, want bullish", h.Direction)
			}
			if h.Index != 2 {
				t.Errorf("engulfing at index %d, want 2", h.Index)
			}
		}
	}
	if !found {
		t.Errorf("engulfing not recognized in %v", hits)
	}
}

func TestDetectRecordsSortedAndClamped(t *testing.T) {
	d := NewCandlestickDetector(nil, testLogger())
	series := market.Series{
		barAt(0, 110, 111, 104, 105),
		barAt(1, 105, 106, 102, 103),
		barAt(2, 102, 108, 101, 107),
	}

	records := d.Detect(series)
	for i, r := range records {
		if r.Confidence < MinConfidence || r.Confidence > MaxConfidence {
			t.Errorf("record %q confidence %d out of bounds", r.Name, r.Confidence)
		}
		if r.Category != CategoryCandle {
			t.Errorf("record %q category %s, want Candle", r.Name, r.Category)
		}
		if i > 0 && records[i-1].Confidence < r.Confidence {
			t.Errorf("records not sorted by confidence descending at %d", i)
		}
		if _, ok := r.Coordinates.(PatternRange); !ok {
			t.Errorf("record %q coordinates are not a pattern range", r.Name)
		}
	}
}

func TestCandleRangeCoordsSpansDuration(t *testing.T) {
	series := market.Series{
		barAt(0, 100, 106, 99, 105),
		barAt(1, 105, 107, 100, 101),
		barAt(2, 101, 109, 98, 108),
	}
	coords, ok := candleRangeCoords(series, 2, "Engulfing Pattern", Bullish).(PatternRange)
	if !ok {
		t.Fatal("expected pattern range coordinates")
	}
	if coords.StartIndex != 1 || coords.EndIndex != 2 {
		t.Errorf("span [%d,%d], want [1,2]", coords.StartIndex, coords.EndIndex)
	}
	if coords.PatternHigh != 109 || coords.PatternLow != 98 {
		t.Errorf("bounds (%v,%v), want (109,98)", coords.PatternHigh, coords.PatternLow)
	}
}
