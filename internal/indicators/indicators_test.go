package indicators

import (
	"math"
	"testing"
	"time"

	"pattern-hero/internal/market"
)

func constSeries(n int, price float64) market.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var s market.Series
	for i := 0; i < n; i++ {
		s = append(s, market.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      price,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    1000,
		})
	}
	return s
}

func TestSMAWarmupAndValue(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	sma := SMA(values, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(sma[i]) {
			t.Errorf("sma[%d] = %v, want NaN during warmup", i, sma[i])
		}
	}
	want := []float64{2, 3, 4, 5}
	for i, w := range want {
		if got := sma[i+2]; math.Abs(got-w) > 1e-9 {
			t.Errorf("sma[%d] = %v, want %v", i+2, got, w)
		}
	}
}

func TestEMASeedsFromSMA(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10}
	ema := EMA(values, 3)
	for i := 2; i < len(ema); i++ {
		if math.Abs(ema[i]-10) > 1e-9 {
			t.Errorf("ema[%d] = %v, want 10 for a constant input", i, ema[i])
		}
	}
}

func TestRSIExtremes(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
	}

	rsiUp := RSI(up, 14)
	if got := rsiUp[len(rsiUp)-1]; math.Abs(got-100) > 1e-9 {
		t.Errorf("RSI of pure gains = %v, want 100", got)
	}
	rsiDown := RSI(down, 14)
	if got := rsiDown[len(rsiDown)-1]; math.Abs(got) > 1e-9 {
		t.Errorf("RSI of pure losses = %v, want 0", got)
	}
}

func TestBollingerBandsBracketTheMean(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16,
		15, 17, 16, 18, 17, 19, 18, 20, 19, 21, 20, 22}
	upper, middle, lower := Bollinger(values, 20, 2)

	last := len(values) - 1
	if math.IsNaN(upper[last]) || math.IsNaN(lower[last]) {
		t.Fatal("bands NaN after warmup")
	}
	if !(lower[last] < middle[last] && middle[last] < upper[last]) {
		t.Errorf("band ordering violated: %v %v %v", lower[last], middle[last], upper[last])
	}
}

func TestMACDConvergesToZeroOnConstantInput(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100
	}
	line, signal, hist := MACD(values, 12, 26, 9)
	last := len(values) - 1
	if math.Abs(line[last]) > 1e-9 || math.Abs(signal[last]) > 1e-9 || math.Abs(hist[last]) > 1e-9 {
		t.Errorf("MACD of constant input = (%v, %v, %v), want zeros",
			line[last], signal[last], hist[last])
	}
}

func TestStochasticMidpointOnFlatRange(t *testing.T) {
	highs := make([]float64, 20)
	lows := make([]float64, 20)
	closes := make([]float64, 20)
	for i := range highs {
		highs[i], lows[i], closes[i] = 100, 100, 100
	}
	k, _ := Stochastic(highs, lows, closes, 14, 3)
	if got := k[len(k)-1]; got != 50 {
		t.Errorf("flat range %%K = %v, want 50", got)
	}
}

func TestATRPositiveAndSmoothed(t *testing.T) {
	s := constSeries(40, 100)
	atr := ATR(s.Highs(), s.Lows(), s.Closes(), 14)
	last := atr[len(atr)-1]
	if math.IsNaN(last) || last <= 0 {
		t.Errorf("ATR = %v, want a positive value", last)
	}
}

func TestDonchianExcludesCurrentBar(t *testing.T) {
	highs := make([]float64, 25)
	lows := make([]float64, 25)
	for i := range highs {
		highs[i] = 100
		lows[i] = 90
	}
	// a new extreme on the final bar must not raise its own channel
	highs[24] = 150
	upper, _ := Donchian(highs, lows, 20)
	if got := upper[24]; got != 100 {
		t.Errorf("donchian upper = %v, want 100 from the prior window", got)
	}
}

func TestComputePanelAlignment(t *testing.T) {
	s := constSeries(60, 100)
	panel := NewFormulaEngine().Compute(s)

	for name, series := range panel {
		if len(series) != len(s) {
			t.Errorf("%s has %d values, want %d", name, len(series), len(s))
		}
	}
	for _, key := range []string{"rsi_14", "macd", "bb_upper", "adx_14", "sar", "obv", "tenkan"} {
		if _, ok := panel[key]; !ok {
			t.Errorf("panel missing %s", key)
		}
	}
}
