package database

import "testing"

// every name the detectors can emit; detections persist against this
// catalog, so a missing row loses its typical-duration metadata
var emittedPatternNames = []string{
	// candlestick
	"Doji", "Dragonfly Doji", "Gravestone Doji", "Hammer", "Hanging Man",
	"Shooting Star", "Marubozu", "Spinning Top", "Engulfing Pattern",
	"Piercing Pattern", "Dark Cloud Cover", "Harami Pattern", "Harami Cross",
	"Thrusting Pattern", "Morning Star", "Evening Star",
	"Three White Soldiers", "Three Black Crows", "Three Inside Up/Down",
	"Three Outside Up/Down", "Advance Block",

	// chart
	"Support Level Test", "Resistance Level Test", "Uptrend", "Downtrend",
	"Bullish Breakout", "Bearish Breakdown",

	// harmonic
	"Gartley", "Butterfly", "Bat", "Crab", "Deep Crab", "Cypher", "Shark",
	"NenStar", "Anti Pattern", "Perfect Gartley", "ABCD", "Three Drives",

	// volume
	"Volume Spike", "Volume Breakout", "Accumulation", "Distribution",
	"Buying Climax", "Selling Climax", "Low Volume Pullback",
	"Volume Confirmation", "Volume Divergence", "High Volume Reversal",
	"Volume Thrust", "Volume Drying Up", "Volume Expansion",
	"Volume Contraction", "OBV Uptrend", "OBV Downtrend", "VPT Uptrend",
	"VPT Downtrend", "Heavy Volume Rejection",

	// statistical
	"Bollinger Squeeze", "Bollinger Breakout", "Bollinger Breakdown",
	"Bollinger Bounce", "RSI Overbought", "RSI Oversold",
	"RSI Bullish Divergence", "RSI Bearish Divergence",
	"MACD Bullish Crossover", "MACD Bearish Crossover", "MACD Zero Cross",
	"Stochastic Overbought", "Stochastic Oversold",
	"Williams %R Overbought", "Williams %R Oversold", "Momentum Shift",
	"CCI Overbought", "CCI Oversold", "Volatility Expansion",
	"Volatility Contraction", "Strong Trend", "Weak Trend",
	"Parabolic SAR Flip", "Aroon Uptrend", "Aroon Downtrend",
	"MFI Overbought", "MFI Oversold", "Ultimate Oscillator Overbought",
	"Ultimate Oscillator Oversold", "OBV Rising", "OBV Falling",
	"TRIX Zero Cross", "ROC Zero Cross", "DMI Bullish Crossover",
	"DMI Bearish Crossover", "Ichimoku Bullish Cross",
	"Ichimoku Bearish Cross", "Keltner Channel Breakout",
	"Keltner Channel Breakdown", "Donchian Channel Breakout",
	"Donchian Channel Breakdown",
}

func TestCatalogCoversEveryEmittedName(t *testing.T) {
	seeded := make(map[string]bool, len(patternCatalog))
	for _, e := range patternCatalog {
		seeded[e.name] = true
	}

	for _, name := range emittedPatternNames {
		if !seeded[name] {
			t.Errorf("catalog missing %q", name)
		}
	}
}

func TestCatalogHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool, len(patternCatalog))
	for _, e := range patternCatalog {
		if seen[e.name] {
			t.Errorf("catalog lists %q twice", e.name)
		}
		seen[e.name] = true
	}
}

func TestCatalogRowsAreComplete(t *testing.T) {
	for _, e := range patternCatalog {
		if e.name == "" || e.category == "" || e.patternType == "" {
			t.Errorf("catalog entry %+v has empty identity fields", e)
		}
		if e.duration < 1 {
			t.Errorf("%q has non-positive typical duration %d", e.name, e.duration)
		}
		if e.reliability < 1 || e.reliability > 100 {
			t.Errorf("%q has reliability %d outside 1..100", e.name, e.reliability)
		}
		if e.reversal && e.continuous {
			t.Errorf("%q marked both reversal and continuation", e.name)
		}
	}
}
