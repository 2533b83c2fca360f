package patterns

import (
	"testing"
	"time"

	"pattern-hero/internal/market"
)

func barAt(day int, open, high, low, close float64) market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return market.Bar{
		Timestamp: base.AddDate(0, 0, day),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    1000,
	}
}

// flatBar builds a bar whose whole range sits at one price level
func flatBar(day int, price float64) market.Bar {
	return barAt(day, price, price, price, price)
}

func TestFindPivotsTooShort(t *testing.T) {
	series := market.Series{flatBar(0, 100), flatBar(1, 100), flatBar(2, 100)}
	if got := FindPivots(series, 2); got != nil {
		t.Errorf("expected nil for short series, got %v", got)
	}
}

func TestFindPivotsMonotonicSeriesHasNone(t *testing.T) {
	// strictly rising at 1% per bar, well beyond the tolerance band
	var series market.Series
	price := 100.0
	for i := 0; i < 15; i++ {
		series = append(series, flatBar(i, price))
		price *= 1.01
	}
	if got := FindPivots(series, 2); len(got) != 0 {
		t.Errorf("monotonic series produced pivots: %v", got)
	}
}

func TestFindPivotsLocatesPeakAndTrough(t *testing.T) {
	levels := []float64{100, 104, 110, 104, 100, 96, 90, 96, 100, 104, 108}
	var series market.Series
	for i, l := range levels {
		series = append(series, flatBar(i, l))
	}

	pivots := FindPivots(series, 2)
	if len(pivots) != 2 {
		t.Fatalf("expected 2 pivots, got %d: %v", len(pivots), pivots)
	}
	if pivots[0].Kind != PivotHigh || pivots[0].Index != 2 {
		t.Errorf("expected high at index 2, got %+v", pivots[0])
	}
	if pivots[1].Kind != PivotLow || pivots[1].Index != 6 {
		t.Errorf("expected low at index 6, got %+v", pivots[1])
	}
	if pivots[0].Price != 110 || pivots[1].Price != 90 {
		t.Errorf("unexpected pivot prices: %v", pivots)
	}
}

func TestFindPivotsHighWinsOnFlatExtremum(t *testing.T) {
	// every bar identical: interior bars qualify as both, reported as highs
	var series market.Series
	for i := 0; i < 7; i++ {
		series = append(series, flatBar(i, 100))
	}
	pivots := FindPivots(series, 2)
	for _, p := range pivots {
		if p.Kind != PivotHigh {
			t.Errorf("expected high on tie at index %d, got %s", p.Index, p.Kind)
		}
	}
}

func TestFindPivotsAscendingOrder(t *testing.T) {
	levels := []float64{100, 110, 100, 90, 100, 112, 100, 88, 100, 110, 100}
	var series market.Series
	for i, l := range levels {
		series = append(series, flatBar(i, l))
	}
	pivots := FindPivots(series, 1)
	for i := 1; i < len(pivots); i++ {
		if pivots[i].Index <= pivots[i-1].Index {
			t.Fatalf("pivots out of order: %v", pivots)
		}
	}
}
