package patterns

import (
	"fmt"

	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
)

const (
	chartWindow        = 20
	srProximity        = 0.02 // within 2% of the level counts as a test
	breakoutVolumeMult = 1.5
)

// ChartDetector finds structural price patterns: support and resistance
// tests, moving average trends, and range breakouts.
type ChartDetector struct {
	logger zerolog.Logger
}

func NewChartDetector(logger zerolog.Logger) *ChartDetector {
	return &ChartDetector{
		logger: logger.With().Str("component", "ChartDetector").Logger(),
	}
}

// Detect runs every structural check against the latest bar
func (d *ChartDetector) Detect(series market.Series) []Record {
	if len(series) < chartWindow {
		return nil
	}

	var records []Record
	if r, ok := d.supportTest(series); ok {
		records = append(records, r)
	}
	if r, ok := d.resistanceTest(series); ok {
		records = append(records, r)
	}
	if r, ok := d.trend(series); ok {
		records = append(records, r)
	}
	if r, ok := d.breakout(series); ok {
		records = append(records, r)
	}
	return records
}

// rollingLow and rollingHigh cover the trailing window including the
// current bar
func rollingLow(series market.Series, window int) float64 {
	low := series[len(series)-1].Low
	for i := len(series) - window; i < len(series); i++ {
		if series[i].Low < low {
			low = series[i].Low
		}
	}
	return low
}

func rollingHigh(series market.Series, window int) float64 {
	high := series[len(series)-1].High
	for i := len(series) - window; i < len(series); i++ {
		if series[i].High > high {
			high = series[i].High
		}
	}
	return high
}

func sma(series market.Series, period int) (float64, bool) {
	if len(series) < period {
		return 0, false
	}
	sum := 0.0
	for i := len(series) - period; i < len(series); i++ {
		sum += series[i].Close
	}
	return sum / float64(period), true
}

func avgVolume(series market.Series, window int) float64 {
	sum := 0.0
	for i := len(series) - window; i < len(series); i++ {
		sum += series[i].Volume
	}
	return sum / float64(window)
}

// confidence from factors: average of the factor list scaled to [0,100]
func factorConfidence(factors []float64) int {
	if len(factors) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return int(sum / float64(len(factors)) * 100)
}

func (d *ChartDetector) supportTest(series market.Series) (Record, bool) {
	level := rollingLow(series, chartWindow)
	last := series[len(series)-1]
	if level <= 0 {
		return Record{}, false
	}
	dist := (last.Close - level) / level
	if dist < 0 || dist > srProximity {
		return Record{}, false
	}

	factors := []float64{0.75, min(1.0, 0.5+(srProximity-dist)*25)}
	if last.Volume > avgVolume(series, chartWindow)*breakoutVolumeMult {
		factors = append(factors, 0.9)
	}

	start := series[len(series)-chartWindow].Timestamp
	return NewRecord(
		"Support Level Test",
		CategoryChart,
		factorConfidence(factors),
		Bullish,
		fmt.Sprintf("Price testing support near %.2f", level),
		HorizontalLine{
			Type:           "horizontal_line",
			Level:          level,
			StartTime:      start,
			EndTime:        last.Timestamp,
			HighlightColor: directionColor(Bullish),
		},
	), true
}

func (d *ChartDetector) resistanceTest(series market.Series) (Record, bool) {
	level := rollingHigh(series, chartWindow)
	last := series[len(series)-1]
	if level <= 0 {
		return Record{}, false
	}
	dist := (level - last.Close) / level
	if dist < 0 || dist > srProximity {
		return Record{}, false
	}

	factors := []float64{0.75, min(1.0, 0.5+(srProximity-dist)*25)}
	if last.Volume > avgVolume(series, chartWindow)*breakoutVolumeMult {
		factors = append(factors, 0.9)
	}

	start := series[len(series)-chartWindow].Timestamp
	return NewRecord(
		"Resistance Level Test",
		CategoryChart,
		factorConfidence(factors),
		Bearish,
		fmt.Sprintf("Price testing resistance near %.2f", level),
		HorizontalLine{
			Type:           "horizontal_line",
			Level:          level,
			StartTime:      start,
			EndTime:        last.Timestamp,
			HighlightColor: directionColor(Bearish),
		},
	), true
}

// trend checks the close against the 20 and 50 bar moving averages. A clean
// stack (close > sma20 > sma50, or inverted) marks a trend.
func (d *ChartDetector) trend(series market.Series) (Record, bool) {
	sma20, ok20 := sma(series, 20)
	sma50, ok50 := sma(series, 50)
	if !ok20 || !ok50 || sma20 <= 0 || sma50 <= 0 {
		return Record{}, false
	}
	last := series[len(series)-1]

	var name string
	var direction Direction
	var priceAbove, separation float64
	switch {
	case last.Close > sma20 && sma20 > sma50:
		name = "Uptrend"
		direction = Bullish
		priceAbove = (last.Close - sma20) / sma20
		separation = (sma20 - sma50) / sma50
	case last.Close < sma20 && sma20 < sma50:
		name = "Downtrend"
		direction = Bearish
		priceAbove = (sma20 - last.Close) / sma20
		separation = (sma50 - sma20) / sma50
	default:
		return Record{}, false
	}

	factors := []float64{
		0.70,
		min(1.0, priceAbove*10),
		min(1.0, separation*20),
	}

	start := len(series) - chartWindow
	return NewRecord(
		name,
		CategoryChart,
		factorConfidence(factors),
		direction,
		fmt.Sprintf("Price in a sustained %s relative to the 20 and 50 period moving averages", name),
		PatternRange{
			Type:           "pattern_range",
			StartIndex:     start,
			EndIndex:       len(series) - 1,
			StartTime:      series[start].Timestamp,
			EndTime:        last.Timestamp,
			PatternHigh:    rollingHigh(series, chartWindow),
			PatternLow:     rollingLow(series, chartWindow),
			HighlightColor: directionColor(direction),
			PatternName:    name,
		},
	), true
}

// breakout compares the latest close against the prior window's range,
// excluding the current bar. The previous close must have been inside the
// range so only the fresh break registers.
func (d *ChartDetector) breakout(series market.Series) (Record, bool) {
	if len(series) < chartWindow+1 {
		return Record{}, false
	}
	prior := series[len(series)-chartWindow-1 : len(series)-1]
	rangeHigh := prior[0].High
	rangeLow := prior[0].Low
	for _, b := range prior[1:] {
		if b.High > rangeHigh {
			rangeHigh = b.High
		}
		if b.Low < rangeLow {
			rangeLow = b.Low
		}
	}
	rangeSize := rangeHigh - rangeLow
	if rangeSize <= 0 {
		return Record{}, false
	}

	last := series[len(series)-1]
	prevClose := series[len(series)-2].Close
	if prevClose > rangeHigh || prevClose < rangeLow {
		return Record{}, false
	}

	var name, desc string
	var direction Direction
	var level, strength float64
	switch {
	case last.Close > rangeHigh:
		name = "Bullish Breakout"
		direction = Bullish
		level = rangeHigh
		strength = (last.Close - rangeHigh) / rangeSize
		desc = fmt.Sprintf("Price broke above the %d period range high at %.2f", chartWindow, rangeHigh)
	case last.Close < rangeLow:
		name = "Bearish Breakdown"
		direction = Bearish
		level = rangeLow
		strength = (rangeLow - last.Close) / rangeSize
		desc = fmt.Sprintf("Price broke below the %d period range low at %.2f", chartWindow, rangeLow)
	default:
		return Record{}, false
	}

	factors := []float64{0.75, min(1.0, strength*2)}
	if last.Volume > avgVolume(series, chartWindow)*breakoutVolumeMult {
		factors = append(factors, 0.95)
	}

	return NewRecord(
		name,
		CategoryChart,
		factorConfidence(factors),
		direction,
		desc,
		HorizontalLine{
			Type:           "horizontal_line",
			Level:          level,
			StartTime:      prior[0].Timestamp,
			EndTime:        last.Timestamp,
			HighlightColor: directionColor(direction),
		},
	), true
}
