package patterns

import (
	"testing"

	"pattern-hero/internal/indicators"
	"pattern-hero/internal/market"
)

func newStatDetector() *StatisticalDetector {
	return NewStatisticalDetector(indicators.NewFormulaEngine(), DefaultRuleConfig(), testLogger())
}

func TestStatisticalDetectorTooShort(t *testing.T) {
	d := newStatDetector()
	var series market.Series
	for i := 0; i < 29; i++ {
		series = append(series, flatBar(i, 100))
	}
	if got := d.Detect(series); got != nil {
		t.Errorf("expected nil below the bar minimum, got %v", got)
	}
}

func TestRSIOversoldFires(t *testing.T) {
	// a relentless decline drives RSI to zero
	var series market.Series
	price := 200.0
	for i := 0; i < 40; i++ {
		series = append(series, barAt(i, price, price*1.001, price*0.985, price*0.99))
		price *= 0.99
	}

	records := newStatDetector().Detect(series)

	var oversold *Record
	for i := range records {
		if records[i].Name == "RSI Oversold" {
			oversold = &records[i]
		}
	}
	if oversold == nil {
		t.Fatalf("RSI oversold not detected in %v", records)
	}
	if oversold.Direction != Bullish {
		t.Errorf("oversold direction %s, want bullish", oversold.Direction)
	}
	if oversold.Category != CategoryStatistical {
		t.Errorf("oversold category %s, want Statistical", oversold.Category)
	}

	sp, ok := oversold.Coordinates.(StatisticalPattern)
	if !ok {
		t.Fatal("oversold coordinates are not a statistical pattern")
	}
	if sp.Index != len(series)-1 {
		t.Errorf("oversold anchored at %d, want the last bar", sp.Index)
	}
}

func TestRSIOverboughtFires(t *testing.T) {
	var series market.Series
	price := 100.0
	for i := 0; i < 40; i++ {
		series = append(series, barAt(i, price, price*1.015, price*0.999, price*1.01))
		price *= 1.01
	}

	records := newStatDetector().Detect(series)

	found := false
	for _, r := range records {
		if r.Name == "RSI Overbought" {
			found = true
			if r.Direction != Bearish {
				t.Errorf("overbought direction %s, want bearish", r.Direction)
			}
		}
	}
	if !found {
		t.Errorf("RSI overbought not detected in %v", records)
	}
}

func TestFlatSeriesEmitsNoCrossovers(t *testing.T) {
	var series market.Series
	for i := 0; i < 60; i++ {
		series = append(series, flatBar(i, 100))
	}

	for _, r := range newStatDetector().Detect(series) {
		switch r.Name {
		case "MACD Bullish Crossover", "MACD Bearish Crossover",
			"MACD Zero Cross", "Momentum Shift",
			"TRIX Zero Cross", "ROC Zero Cross":
			t.Errorf("flat series produced %q", r.Name)
		}
	}
}

func TestRuleConfigThresholdsAreRespected(t *testing.T) {
	cfg := DefaultRuleConfig()
	cfg.RSIOversold = -1 // unreachable, the rule can never fire

	d := NewStatisticalDetector(indicators.NewFormulaEngine(), cfg, testLogger())

	var series market.Series
	price := 200.0
	for i := 0; i < 40; i++ {
		series = append(series, barAt(i, price, price*1.001, price*0.985, price*0.99))
		price *= 0.99
	}

	for _, r := range d.Detect(series) {
		if r.Name == "RSI Oversold" {
			t.Error("oversold fired despite an unreachable threshold")
		}
	}
}

func TestEveryStatisticalRecordIsBounded(t *testing.T) {
	var series market.Series
	price := 100.0
	for i := 0; i < 80; i++ {
		// alternating regime flips exercise many rules at once
		if i%7 < 4 {
			price *= 1.02
		} else {
			price *= 0.985
		}
		series = append(series, barAt(i, price, price*1.01, price*0.99, price*1.002))
	}

	for _, r := range newStatDetector().Detect(series) {
		if r.Confidence < MinConfidence || r.Confidence > MaxConfidence {
			t.Errorf("record %q confidence %d out of bounds", r.Name, r.Confidence)
		}
		switch r.Direction {
		case Bullish, Bearish, Neutral, Continuation:
		default:
			t.Errorf("record %q direction %q invalid", r.Name, r.Direction)
		}
	}
}
