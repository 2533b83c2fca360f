package database

import (
	"context"
	"fmt"
)

// seedEntry describes one catalog row
type seedEntry struct {
	name        string
	category    string
	patternType string
	duration    int
	description string
	reliability int
	reversal    bool
	continuous  bool
}

var patternCatalog = []seedEntry{
	// candle shapes
	{"Doji", "Candle", "indecision", 1, "Open and close nearly equal", 55, false, false},
	{"Dragonfly Doji", "Candle", "reversal", 1, "Doji with a long lower shadow", 60, true, false},
	{"Gravestone Doji", "Candle", "reversal", 1, "Doji with a long upper shadow", 60, true, false},
	{"Hammer", "Candle", "reversal", 1, "Long lower shadow after a decline", 65, true, false},
	{"Hanging Man", "Candle", "reversal", 1, "Hammer shape after an advance", 60, true, false},
	{"Shooting Star", "Candle", "reversal", 1, "Long upper shadow after an advance", 64, true, false},
	{"Marubozu", "Candle", "continuation", 1, "Full body candle with no shadows", 68, false, true},
	{"Spinning Top", "Candle", "indecision", 1, "Small body with shadows both sides", 50, false, false},
	{"Engulfing Pattern", "Candle", "reversal", 2, "Second body engulfs the first", 70, true, false},
	{"Piercing Pattern", "Candle", "reversal", 2, "Bull close above the bear midpoint", 66, true, false},
	{"Dark Cloud Cover", "Candle", "reversal", 2, "Bear close below the bull midpoint", 66, true, false},
	{"Harami Pattern", "Candle", "reversal", 2, "Small body inside the prior body", 55, true, false},
	{"Harami Cross", "Candle", "reversal", 2, "Harami where the second candle is a doji", 58, true, false},
	{"Thrusting Pattern", "Candle", "continuation", 2, "Bull close stalls below the bear midpoint", 52, false, true},
	{"Morning Star", "Candle", "reversal", 3, "Three candle bottom reversal", 72, true, false},
	{"Evening Star", "Candle", "reversal", 3, "Three candle top reversal", 72, true, false},
	{"Three White Soldiers", "Candle", "reversal", 3, "Three strong consecutive bull candles", 75, true, false},
	{"Three Black Crows", "Candle", "reversal", 3, "Three strong consecutive bear candles", 75, true, false},
	{"Three Inside Up/Down", "Candle", "reversal", 3, "Harami plus a confirming close", 65, true, false},
	{"Three Outside Up/Down", "Candle", "reversal", 3, "Engulfing plus a confirming close", 65, true, false},
	{"Advance Block", "Candle", "reversal", 3, "Rising bulls with shrinking bodies", 55, true, false},

	// chart structures
	{"Support Level Test", "Chart", "support", 20, "Price probing a rolling low", 65, false, false},
	{"Resistance Level Test", "Chart", "resistance", 20, "Price probing a rolling high", 65, false, false},
	{"Uptrend", "Chart", "trend", 20, "Close above stacked moving averages", 70, false, true},
	{"Downtrend", "Chart", "trend", 20, "Close below stacked moving averages", 70, false, true},
	{"Bullish Breakout", "Chart", "breakout", 20, "Close above the prior range high", 72, false, true},
	{"Bearish Breakdown", "Chart", "breakout", 20, "Close below the prior range low", 72, false, true},

	// harmonic structures
	{"Gartley", "Harmonic", "reversal", 30, "XABCD structure at the 0.786 retracement", 75, true, false},
	{"Butterfly", "Harmonic", "reversal", 30, "XABCD structure extending past X", 72, true, false},
	{"Bat", "Harmonic", "reversal", 30, "XABCD structure at the 0.886 retracement", 72, true, false},
	{"Crab", "Harmonic", "reversal", 30, "Deep XABCD extension to 1.618", 78, true, false},
	{"Deep Crab", "Harmonic", "reversal", 30, "Crab variant with a 0.886 B point", 77, true, false},
	{"Cypher", "Harmonic", "reversal", 30, "Structure completing at 0.786 of XC", 73, true, false},
	{"Shark", "Harmonic", "reversal", 30, "Structure completing near 0.886 to 1.13", 70, true, false},
	{"NenStar", "Harmonic", "reversal", 30, "Extended cypher variant", 68, true, false},
	{"Anti Pattern", "Harmonic", "reversal", 30, "Inverted ratio structure", 66, true, false},
	{"Perfect Gartley", "Harmonic", "reversal", 30, "Gartley with ideal ratio alignment", 80, true, false},
	{"ABCD", "Harmonic", "reversal", 20, "Measured move with matching legs", 65, true, false},
	{"Three Drives", "Harmonic", "reversal", 40, "Three symmetric drives into exhaustion", 68, true, false},

	// volume events
	{"Volume Spike", "Volume", "event", 1, "Volume far above its average", 60, false, false},
	{"Volume Breakout", "Volume", "breakout", 1, "New highs on elevated volume", 70, false, true},
	{"Accumulation", "Volume", "trend", 20, "Money flow building with price", 65, false, true},
	{"Distribution", "Volume", "trend", 20, "Money flow leaving with price", 65, false, true},
	{"Buying Climax", "Volume", "reversal", 1, "Exhaustion volume on an advance", 70, true, false},
	{"Selling Climax", "Volume", "reversal", 1, "Capitulation volume on a decline", 70, true, false},
	{"Volume Thrust", "Volume", "breakout", 1, "Explosive volume with a strong advance", 75, false, true},
	{"High Volume Reversal", "Volume", "reversal", 2, "Direction flip on heavy volume", 72, true, false},
	{"Low Volume Pullback", "Volume", "continuation", 3, "Shallow dip on light volume in an uptrend", 60, false, true},
	{"Volume Confirmation", "Volume", "trend", 3, "Volume rising with consecutive closes", 66, false, true},
	{"Volume Divergence", "Volume", "reversal", 5, "Volume fading against the price direction", 58, true, false},
	{"Volume Drying Up", "Volume", "event", 5, "Participation shrinking ahead of a move", 55, false, false},
	{"Volume Expansion", "Volume", "trend", 5, "Participation expanding with the move", 62, false, true},
	{"Volume Contraction", "Volume", "event", 5, "Successive bars of shrinking volume", 54, false, false},
	{"OBV Uptrend", "Volume", "trend", 10, "On balance volume rising with price", 64, false, true},
	{"OBV Downtrend", "Volume", "trend", 10, "On balance volume falling with price", 64, false, true},
	{"VPT Uptrend", "Volume", "trend", 10, "Volume price trend rising", 60, false, true},
	{"VPT Downtrend", "Volume", "trend", 10, "Volume price trend falling", 60, false, true},
	{"Heavy Volume Rejection", "Volume", "reversal", 1, "Dominant wick on elevated volume", 66, true, false},

	// statistical events
	{"RSI Overbought", "Statistical", "oscillator", 1, "RSI above its overbought threshold", 58, true, false},
	{"RSI Oversold", "Statistical", "oscillator", 1, "RSI below its oversold threshold", 58, true, false},
	{"MACD Bullish Crossover", "Statistical", "crossover", 1, "MACD crossing above its signal", 64, false, true},
	{"MACD Bearish Crossover", "Statistical", "crossover", 1, "MACD crossing below its signal", 64, false, true},
	{"Bollinger Squeeze", "Statistical", "volatility", 1, "Bands compressed ahead of expansion", 62, false, false},
	{"Bollinger Breakout", "Statistical", "breakout", 1, "Close beyond the upper band", 66, false, true},
	{"Strong Trend", "Statistical", "trend", 1, "ADX confirming a directional market", 64, false, true},
	{"Weak Trend", "Statistical", "trend", 1, "ADX reporting a ranging market", 52, false, false},
	{"Parabolic SAR Flip", "Statistical", "reversal", 1, "SAR switching sides of price", 60, true, false},
	{"Bollinger Breakdown", "Statistical", "breakout", 1, "Close beyond the lower band", 66, false, true},
	{"Bollinger Bounce", "Statistical", "reversal", 2, "Price re-entering the bands after an excursion", 58, true, false},
	{"RSI Bullish Divergence", "Statistical", "reversal", 10, "RSI strengthening against a falling price", 68, true, false},
	{"RSI Bearish Divergence", "Statistical", "reversal", 10, "RSI weakening against a rising price", 68, true, false},
	{"MACD Zero Cross", "Statistical", "crossover", 1, "MACD line crossing the zero level", 60, false, true},
	{"Stochastic Overbought", "Statistical", "oscillator", 1, "Both stochastic lines stretched high", 55, true, false},
	{"Stochastic Oversold", "Statistical", "oscillator", 1, "Both stochastic lines stretched low", 55, true, false},
	{"Williams %R Overbought", "Statistical", "oscillator", 1, "Williams %R near the top of its range", 52, true, false},
	{"Williams %R Oversold", "Statistical", "oscillator", 1, "Williams %R near the bottom of its range", 52, true, false},
	{"Momentum Shift", "Statistical", "crossover", 1, "Raw momentum changing sign", 56, false, true},
	{"CCI Overbought", "Statistical", "oscillator", 1, "CCI stretched above +100", 52, true, false},
	{"CCI Oversold", "Statistical", "oscillator", 1, "CCI stretched below -100", 52, true, false},
	{"Volatility Expansion", "Statistical", "volatility", 3, "Average true range widening sharply", 58, false, false},
	{"Volatility Contraction", "Statistical", "volatility", 3, "Average true range compressing", 56, false, false},
	{"Aroon Uptrend", "Statistical", "trend", 5, "Aroon up dominating its window", 54, false, true},
	{"Aroon Downtrend", "Statistical", "trend", 5, "Aroon down dominating its window", 54, false, true},
	{"MFI Overbought", "Statistical", "oscillator", 1, "Money flow stretched to the upside", 54, true, false},
	{"MFI Oversold", "Statistical", "oscillator", 1, "Money flow stretched to the downside", 54, true, false},
	{"Ultimate Oscillator Overbought", "Statistical", "oscillator", 1, "Blended pressure above its ceiling", 52, true, false},
	{"Ultimate Oscillator Oversold", "Statistical", "oscillator", 1, "Blended pressure below its floor", 52, true, false},
	{"OBV Rising", "Statistical", "trend", 10, "On balance volume trending higher", 58, false, true},
	{"OBV Falling", "Statistical", "trend", 10, "On balance volume trending lower", 58, false, true},
	{"TRIX Zero Cross", "Statistical", "crossover", 1, "Triple smoothed momentum changing sign", 56, false, true},
	{"ROC Zero Cross", "Statistical", "crossover", 1, "Rate of change changing sign", 56, false, true},
	{"DMI Bullish Crossover", "Statistical", "crossover", 1, "+DI crossing above -DI", 60, false, true},
	{"DMI Bearish Crossover", "Statistical", "crossover", 1, "-DI crossing above +DI", 60, false, true},
	{"Ichimoku Bullish Cross", "Statistical", "crossover", 3, "Tenkan-sen crossing above kijun-sen", 62, false, true},
	{"Ichimoku Bearish Cross", "Statistical", "crossover", 3, "Tenkan-sen crossing below kijun-sen", 62, false, true},
	{"Keltner Channel Breakout", "Statistical", "breakout", 2, "Close above the upper Keltner channel", 62, false, true},
	{"Keltner Channel Breakdown", "Statistical", "breakout", 2, "Close below the lower Keltner channel", 62, false, true},
	{"Donchian Channel Breakout", "Statistical", "breakout", 2, "Close above the prior Donchian high", 64, false, true},
	{"Donchian Channel Breakdown", "Statistical", "breakout", 2, "Close below the prior Donchian low", 64, false, true},
}

// SeedPatternTypes inserts the catalog, skipping rows that already exist
func (r *Repository) SeedPatternTypes(ctx context.Context) error {
	query := `
		INSERT INTO pattern_types (name, category, pattern_type, typical_duration,
			description, reliability_score, is_reversal, is_continuation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING`

	for _, e := range patternCatalog {
		if _, err := r.db.Pool.Exec(ctx, query,
			e.name, e.category, e.patternType, e.duration,
			e.description, e.reliability, e.reversal, e.continuous,
		); err != nil {
			return fmt.Errorf("seeding pattern type %q: %w", e.name, err)
		}
	}
	return nil
}
