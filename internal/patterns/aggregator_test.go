package patterns

import (
	"reflect"
	"testing"

	"pattern-hero/internal/market"
)

// stubDetector emits a fixed record list
type stubDetector struct {
	records []Record
}

func (s stubDetector) Detect(market.Series) []Record { return s.records }

// panicDetector always panics
type panicDetector struct{}

func (panicDetector) Detect(market.Series) []Record { panic("boom") }

func TestAnalyzeIsolatesPanickingDetector(t *testing.T) {
	a := NewEmptyAggregator(testLogger())
	a.Register("panics", panicDetector{})
	a.Register("works", stubDetector{records: []Record{
		NewRecord("Steady", CategoryChart, 80, Bullish, "", nil),
	}})

	result := a.Analyze(market.Series{flatBar(0, 100)})
	if len(result.Patterns) != 1 {
		t.Fatalf("expected the healthy detector's record, got %d", len(result.Patterns))
	}
	if result.Patterns[0].Name != "Steady" {
		t.Errorf("unexpected surviving record %q", result.Patterns[0].Name)
	}
}

func TestAnalyzeTruncatesToStrongest(t *testing.T) {
	var records []Record
	for i := 0; i < maxResults+20; i++ {
		conf := 10 + i%90
		records = append(records, NewRecord("R", CategoryVolume, conf, Neutral, "", nil))
	}

	a := NewEmptyAggregator(testLogger())
	a.Register("many", stubDetector{records: records})

	result := a.Analyze(market.Series{flatBar(0, 100)})
	if len(result.Patterns) != maxResults {
		t.Fatalf("expected %d records, got %d", maxResults, len(result.Patterns))
	}
	for i := 1; i < len(result.Patterns); i++ {
		if result.Patterns[i-1].Confidence < result.Patterns[i].Confidence {
			t.Fatal("results not sorted by confidence descending")
		}
	}
	if result.Strongest == nil || result.Strongest.Confidence != result.Patterns[0].Confidence {
		t.Error("strongest pattern does not match the head of the list")
	}

	// truncation trims the list, never the accounting
	if result.TotalDetected != maxResults+20 {
		t.Errorf("total detected %d, want %d", result.TotalDetected, maxResults+20)
	}
	if result.Stats.Total != maxResults+20 {
		t.Errorf("stats total %d, want the pre-truncation count %d", result.Stats.Total, maxResults+20)
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	a := NewAggregator(testLogger())
	result := a.Analyze(nil)
	if len(result.Patterns) != 0 {
		t.Errorf("expected no patterns on empty input, got %d", len(result.Patterns))
	}
	if result.Strongest != nil {
		t.Error("strongest should be nil when nothing was detected")
	}
	if result.Stats.Total != 0 {
		t.Errorf("stats total %d, want 0", result.Stats.Total)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	var series market.Series
	price := 100.0
	for i := 0; i < 80; i++ {
		if i%9 < 5 {
			price *= 1.015
		} else {
			price *= 0.99
		}
		series = append(series, barAt(i, price, price*1.01, price*0.99, price*1.003))
	}

	a := NewAggregator(testLogger())
	first := a.Analyze(series)
	second := a.Analyze(series)

	if !reflect.DeepEqual(first.Patterns, second.Patterns) {
		t.Error("repeated analysis of the same series diverged")
	}
	if !reflect.DeepEqual(first.Stats, second.Stats) {
		t.Error("repeated analysis produced different stats")
	}
}

func TestComputeStats(t *testing.T) {
	records := []Record{
		NewRecord("A", CategoryCandle, 85, Bullish, "", nil),
		NewRecord("B", CategoryVolume, 70, Bearish, "", nil),
		NewRecord("C", CategoryVolume, 40, Neutral, "", nil),
		NewRecord("A", CategoryCandle, 60, Bullish, "", nil),
	}

	stats := ComputeStats(records)
	if stats.Total != 4 {
		t.Errorf("total %d, want 4", stats.Total)
	}
	if stats.ByCategory["Volume"] != 2 || stats.ByCategory["Candle"] != 2 {
		t.Errorf("category counts wrong: %v", stats.ByCategory)
	}
	if stats.ByDirection["bullish"] != 2 {
		t.Errorf("direction counts wrong: %v", stats.ByDirection)
	}
	if stats.ByConfidenceLevel["high"] != 1 || stats.ByConfidenceLevel["medium"] != 2 || stats.ByConfidenceLevel["low"] != 1 {
		t.Errorf("confidence buckets wrong: %v", stats.ByConfidenceLevel)
	}
	if stats.HighestConfidence != 85 {
		t.Errorf("highest %d, want 85", stats.HighestConfidence)
	}
	if stats.PatternTypes != 3 {
		t.Errorf("distinct names %d, want 3", stats.PatternTypes)
	}
	want := float64(85+70+40+60) / 4
	if stats.AverageConfidence != want {
		t.Errorf("average %v, want %v", stats.AverageConfidence, want)
	}
}
