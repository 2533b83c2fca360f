package marketdata

import (
	"context"
	"testing"
	"time"

	"pattern-hero/internal/market"
)

func hourlyBar(base time.Time, hour int, open, high, low, close, volume float64) market.Bar {
	return market.Bar{
		Timestamp: base.Add(time.Duration(hour) * time.Hour),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

func TestResampleDayOfHourlyBars(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var series market.Series
	for h := 0; h < 24; h++ {
		price := 100 + float64(h)
		series = append(series, hourlyBar(base, h, price, price+2, price-2, price+1, 100))
	}

	out := Resample(series, 24*time.Hour)
	if len(out) != 1 {
		t.Fatalf("expected one daily bar, got %d", len(out))
	}

	bar := out[0]
	if !bar.Timestamp.Equal(base) {
		t.Errorf("bucket timestamp %v, want %v", bar.Timestamp, base)
	}
	if bar.Open != 100 {
		t.Errorf("open %v, want the first bar's open 100", bar.Open)
	}
	if bar.Close != 124 {
		t.Errorf("close %v, want the last bar's close 124", bar.Close)
	}
	if bar.High != 125 {
		t.Errorf("high %v, want the window extreme 125", bar.High)
	}
	if bar.Low != 98 {
		t.Errorf("low %v, want the window extreme 98", bar.Low)
	}
	if bar.Volume != 2400 {
		t.Errorf("volume %v, want the window sum 2400", bar.Volume)
	}
}

func TestResampleSplitsAcrossBuckets(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var series market.Series
	for h := 0; h < 10; h++ {
		series = append(series, hourlyBar(base, h, 100, 101, 99, 100, 50))
	}

	out := Resample(series, 4*time.Hour)
	if len(out) != 3 {
		t.Fatalf("expected 3 buckets from 10 hourly bars, got %d", len(out))
	}
	if out[0].Volume != 200 || out[1].Volume != 200 || out[2].Volume != 100 {
		t.Errorf("bucket volumes %v %v %v, want 200 200 100",
			out[0].Volume, out[1].Volume, out[2].Volume)
	}
}

func TestResamplePassThrough(t *testing.T) {
	if got := Resample(nil, time.Hour); got != nil {
		t.Errorf("nil input should pass through, got %v", got)
	}
	series := market.Series{hourlyBar(time.Now().UTC(), 0, 1, 2, 0.5, 1.5, 10)}
	if got := Resample(series, 0); len(got) != 1 {
		t.Errorf("non-positive interval should pass through, got %d bars", len(got))
	}
}

func TestIntervalForTimeframe(t *testing.T) {
	cases := map[string]time.Duration{
		"1h":      time.Hour,
		"4h":      4 * time.Hour,
		"1d":      24 * time.Hour,
		"unknown": 24 * time.Hour,
	}
	for tf, want := range cases {
		if got := IntervalForTimeframe(tf); got != want {
			t.Errorf("IntervalForTimeframe(%q) = %v, want %v", tf, got, want)
		}
	}
}

func TestSyntheticProviderDeterministic(t *testing.T) {
	p := NewSyntheticProvider()
	first, err := p.FetchOHLCV(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := p.FetchOHLCV(context.Background(), "bitcoin", 30)

	if len(first) != 30 {
		t.Fatalf("expected 30 bars, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bar %d diverged between runs: %+v vs %+v", i, first[i], second[i])
		}
	}

	other, _ := p.FetchOHLCV(context.Background(), "ethereum", 30)
	same := true
	for i := range first {
		if first[i].Close != other[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("different coins produced identical series")
	}
}

func TestSyntheticProviderBarsAreValid(t *testing.T) {
	p := NewSyntheticProvider()
	series, err := p.FetchOHLCV(context.Background(), "solana", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.Validate(); err != nil {
		t.Errorf("generated series failed validation: %v", err)
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Timestamp.After(series[i-1].Timestamp) {
			t.Fatal("timestamps not strictly ascending")
		}
	}
}
