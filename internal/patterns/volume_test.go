package patterns

import (
	"testing"

	"pattern-hero/internal/market"
)

func volBar(day int, open, close, volume float64) market.Bar {
	high := open
	if close > high {
		high = close
	}
	low := open
	if close < low {
		low = close
	}
	b := barAt(day, open, high*1.001, low*0.999, close)
	b.Volume = volume
	return b
}

func TestVolumeDetectorTooShort(t *testing.T) {
	d := NewVolumeDetector(testLogger())
	series := market.Series{volBar(0, 100, 101, 1000)}
	if got := d.Detect(series); got != nil {
		t.Errorf("expected nil for short series, got %v", got)
	}
}

func TestVolumeSpike(t *testing.T) {
	var series market.Series
	price := 100.0
	for i := 0; i < 20; i++ {
		series = append(series, volBar(i, price, price+0.2, 1000))
		price += 0.2
	}
	// final bar trades at 3x the average volume on an up move
	series = append(series, volBar(20, price, price+1, 3500))

	d := NewVolumeDetector(testLogger())
	records := d.Detect(series)

	var spike *Record
	for i := range records {
		if records[i].Name == "Volume Spike" {
			spike = &records[i]
		}
	}
	if spike == nil {
		t.Fatalf("spike not detected in %v", records)
	}
	if spike.Direction != Bullish {
		t.Errorf("spike direction %s, want bullish", spike.Direction)
	}
	if spike.Confidence > 85 {
		t.Errorf("spike confidence %d exceeds its cap", spike.Confidence)
	}

	vp, ok := spike.Coordinates.(VolumePattern)
	if !ok {
		t.Fatal("spike coordinates are not a volume pattern")
	}
	if vp.Index != len(series)-1 {
		t.Errorf("spike anchored at %d, want %d", vp.Index, len(series)-1)
	}
	if vp.Volume != 3500 {
		t.Errorf("spike volume %v, want 3500", vp.Volume)
	}
}

func TestSellingClimax(t *testing.T) {
	var series market.Series
	price := 100.0
	for i := 0; i < 20; i++ {
		series = append(series, volBar(i, price, price-0.3, 1200))
		price -= 0.3
	}
	// capitulation: biggest volume of the window on a 4% drop
	series = append(series, volBar(20, price, price*0.96, 6000))

	d := NewVolumeDetector(testLogger())
	records := d.Detect(series)

	found := false
	for _, r := range records {
		if r.Name == "Selling Climax" {
			found = true
			if r.Direction != Bullish {
				t.Errorf("selling climax direction %s, want bullish", r.Direction)
			}
		}
	}
	if !found {
		t.Errorf("selling climax not detected in %v", records)
	}
}

func TestVolumeContraction(t *testing.T) {
	var series market.Series
	vols := []float64{2000, 2000, 2000, 2000, 2000, 1800, 1500, 1200, 900, 600}
	price := 100.0
	for i, v := range vols {
		series = append(series, volBar(i, price, price+0.1, v))
		price += 0.1
	}

	d := NewVolumeDetector(testLogger())
	records := d.Detect(series)

	found := false
	for _, r := range records {
		if r.Name == "Volume Contraction" {
			found = true
			if r.Direction != Neutral {
				t.Errorf("contraction direction %s, want neutral", r.Direction)
			}
		}
	}
	if !found {
		t.Errorf("contraction not detected in %v", records)
	}
}
