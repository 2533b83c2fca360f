package patterns

import (
	"fmt"

	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
)

const volumeMAWindow = 20

// VolumeDetector runs a battery of volume heuristics against the latest
// bars. Every check anchors its coordinate at the final bar.
type VolumeDetector struct {
	logger zerolog.Logger
}

func NewVolumeDetector(logger zerolog.Logger) *VolumeDetector {
	return &VolumeDetector{
		logger: logger.With().Str("component", "VolumeDetector").Logger(),
	}
}

// volumeContext is the shared state every heuristic reads
type volumeContext struct {
	series  market.Series
	volumes []float64
	closes  []float64
	last    market.Bar
	lastIdx int
	ma20    float64
	change  float64 // fractional close-to-close change of the last bar
}

type volumeCheck func(ctx *volumeContext) (Record, bool)

// Detect requires at least 5 bars; missing volume falls back to the series
// default so thin feeds still produce signals
func (d *VolumeDetector) Detect(series market.Series) []Record {
	if len(series) < 5 {
		return nil
	}

	ctx := &volumeContext{
		series:  series,
		volumes: series.Volumes(),
		closes:  series.Closes(),
		last:    series[len(series)-1],
		lastIdx: len(series) - 1,
	}
	ctx.ma20 = trailingMean(ctx.volumes, volumeMAWindow)
	prevClose := ctx.closes[len(ctx.closes)-2]
	if prevClose != 0 {
		ctx.change = (ctx.last.Close - prevClose) / prevClose
	}

	checks := []volumeCheck{
		d.spike,
		d.breakoutVolume,
		d.accumulationDistribution,
		d.climax,
		d.lowVolumePullback,
		d.confirmation,
		d.divergence,
		d.highVolumeReversal,
		d.thrust,
		d.dryingUp,
		d.expansion,
		d.contraction,
		d.obvTrend,
		d.vptTrend,
		d.heavyRejection,
	}

	var records []Record
	for _, check := range checks {
		if r, ok := check(ctx); ok {
			records = append(records, r)
		}
	}
	return records
}

// trailingMean averages the last n values, or all of them when fewer exist
func trailingMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if n > len(values) {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// slope of a simple linear fit over the last n values
func trendSlope(values []float64, n int) float64 {
	if n > len(values) {
		n = len(values)
	}
	if n < 2 {
		return 0
	}
	window := values[len(values)-n:]
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range window {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

func (d *VolumeDetector) mark(ctx *volumeContext, name string, confidence int, direction Direction, desc string) Record {
	return NewRecord(name, CategoryVolume, confidence, direction, desc, VolumePattern{
		Type:           "volume_pattern",
		Index:          ctx.lastIdx,
		Timestamp:      ctx.last.Timestamp,
		Volume:         ctx.volumes[ctx.lastIdx],
		VolumeMA20:     ctx.ma20,
		Price:          ctx.last.Close,
		HighlightColor: directionColor(direction),
	})
}

func (d *VolumeDetector) spike(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 {
		return Record{}, false
	}
	ratio := ctx.volumes[ctx.lastIdx] / ctx.ma20
	if ratio <= 2 {
		return Record{}, false
	}
	direction := Bullish
	if ctx.change < 0 {
		direction = Bearish
	}
	confidence := min(85, int(ratio*30))
	return d.mark(ctx, "Volume Spike", confidence, direction,
		fmt.Sprintf("Volume %.1fx above its 20 period average", ratio)), true
}

func (d *VolumeDetector) breakoutVolume(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 {
		return Record{}, false
	}
	high20 := rollingHigh(ctx.series, min(volumeMAWindow, len(ctx.series)))
	if ctx.last.Close < high20*0.99 {
		return Record{}, false
	}
	if ctx.volumes[ctx.lastIdx] <= ctx.ma20*1.5 {
		return Record{}, false
	}
	return d.mark(ctx, "Volume Breakout", 80, Bullish,
		"Price at recent highs on elevated volume"), true
}

// accumulationDistribution tracks the A/D line over the last bars; a rising
// line with rising price marks accumulation, falling both marks distribution
func (d *VolumeDetector) accumulationDistribution(ctx *volumeContext) (Record, bool) {
	n := min(len(ctx.series), volumeMAWindow)
	ad := make([]float64, n)
	running := 0.0
	for i := 0; i < n; i++ {
		b := ctx.series[len(ctx.series)-n+i]
		r := b.High - b.Low
		if r > 0 {
			mfm := ((b.Close - b.Low) - (b.High - b.Close)) / r
			running += mfm * ctx.volumes[len(ctx.volumes)-n+i]
		}
		ad[i] = running
	}
	adSlope := trendSlope(ad, n)
	priceSlope := trendSlope(ctx.closes, n)
	if adSlope > 0 && priceSlope > 0 {
		return d.mark(ctx, "Accumulation", 75, Bullish,
			"Money flow accumulating alongside a rising price"), true
	}
	if adSlope < 0 && priceSlope < 0 {
		return d.mark(ctx, "Distribution", 75, Bearish,
			"Money flow distributing alongside a falling price"), true
	}
	return Record{}, false
}

// climax: extreme volume plus a large move often exhausts the move, so the
// signal direction inverts the bar's direction
func (d *VolumeDetector) climax(ctx *volumeContext) (Record, bool) {
	n := min(len(ctx.volumes), volumeMAWindow)
	maxVol := 0.0
	for _, v := range ctx.volumes[len(ctx.volumes)-n:] {
		if v > maxVol {
			maxVol = v
		}
	}
	if maxVol <= 0 || ctx.volumes[ctx.lastIdx] < maxVol*0.95 {
		return Record{}, false
	}
	if ctx.change > 0.03 {
		return d.mark(ctx, "Buying Climax", 82, Bearish,
			"Extreme volume on a sharp advance suggests exhaustion"), true
	}
	if ctx.change < -0.03 {
		return d.mark(ctx, "Selling Climax", 82, Bullish,
			"Extreme volume on a sharp decline suggests capitulation"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) lowVolumePullback(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 {
		return Record{}, false
	}
	priceSlope := trendSlope(ctx.closes, 10)
	recentSlope := trendSlope(ctx.closes, 3)
	if priceSlope <= 0 || recentSlope >= 0 {
		return Record{}, false
	}
	if ctx.volumes[ctx.lastIdx] >= ctx.ma20*0.7 {
		return Record{}, false
	}
	return d.mark(ctx, "Low Volume Pullback", 70, Bullish,
		"Shallow pullback on light volume within an uptrend"), true
}

func (d *VolumeDetector) confirmation(ctx *volumeContext) (Record, bool) {
	if len(ctx.closes) < 4 {
		return Record{}, false
	}
	priceUp := ctx.closes[len(ctx.closes)-1] > ctx.closes[len(ctx.closes)-2] &&
		ctx.closes[len(ctx.closes)-2] > ctx.closes[len(ctx.closes)-3]
	priceDown := ctx.closes[len(ctx.closes)-1] < ctx.closes[len(ctx.closes)-2] &&
		ctx.closes[len(ctx.closes)-2] < ctx.closes[len(ctx.closes)-3]
	volUp := ctx.volumes[len(ctx.volumes)-1] > ctx.volumes[len(ctx.volumes)-2] &&
		ctx.volumes[len(ctx.volumes)-2] > ctx.volumes[len(ctx.volumes)-3]
	if priceUp && volUp {
		return d.mark(ctx, "Volume Confirmation", 78, Bullish,
			"Rising volume confirming the price advance"), true
	}
	if priceDown && volUp {
		return d.mark(ctx, "Volume Confirmation", 78, Bearish,
			"Rising volume confirming the price decline"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) divergence(ctx *volumeContext) (Record, bool) {
	priceSlope := trendSlope(ctx.closes, 5)
	volSlope := trendSlope(ctx.volumes, 5)
	if priceSlope > 0 && volSlope < 0 {
		return d.mark(ctx, "Volume Divergence", 72, Bearish,
			"Price rising while volume fades"), true
	}
	if priceSlope < 0 && volSlope < 0 {
		return d.mark(ctx, "Volume Divergence", 72, Bullish,
			"Selling pressure fading as the decline loses volume"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) highVolumeReversal(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 || len(ctx.closes) < 3 {
		return Record{}, false
	}
	if ctx.volumes[ctx.lastIdx] <= ctx.ma20*1.8 {
		return Record{}, false
	}
	prevChange := 0.0
	if ctx.closes[len(ctx.closes)-3] != 0 {
		prevChange = (ctx.closes[len(ctx.closes)-2] - ctx.closes[len(ctx.closes)-3]) / ctx.closes[len(ctx.closes)-3]
	}
	if prevChange*ctx.change >= 0 {
		return Record{}, false
	}
	if ctx.change > 0.02 {
		return d.mark(ctx, "High Volume Reversal", 85, Bullish,
			"Sharp reversal higher on heavy volume"), true
	}
	if ctx.change < -0.02 {
		return d.mark(ctx, "High Volume Reversal", 85, Bearish,
			"Sharp reversal lower on heavy volume"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) thrust(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 {
		return Record{}, false
	}
	if ctx.volumes[ctx.lastIdx] > ctx.ma20*2.5 && ctx.change > 0.04 {
		return d.mark(ctx, "Volume Thrust", 88, Bullish,
			"Explosive volume powering a strong advance"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) dryingUp(ctx *volumeContext) (Record, bool) {
	if len(ctx.volumes) < volumeMAWindow {
		return Record{}, false
	}
	recent := trailingMean(ctx.volumes, 5)
	hist := trailingMean(ctx.volumes[:len(ctx.volumes)-5], 15)
	if hist <= 0 || recent >= hist*0.6 {
		return Record{}, false
	}
	return d.mark(ctx, "Volume Drying Up", 68, Neutral,
		"Participation fading ahead of a potential move"), true
}

func (d *VolumeDetector) expansion(ctx *volumeContext) (Record, bool) {
	if len(ctx.volumes) < volumeMAWindow {
		return Record{}, false
	}
	recent := trailingMean(ctx.volumes, 5)
	hist := trailingMean(ctx.volumes[:len(ctx.volumes)-5], 15)
	if hist <= 0 || recent <= hist*1.4 {
		return Record{}, false
	}
	direction := Bullish
	if trendSlope(ctx.closes, 5) < 0 {
		direction = Bearish
	}
	return d.mark(ctx, "Volume Expansion", 75, direction,
		"Participation expanding with the current move"), true
}

func (d *VolumeDetector) contraction(ctx *volumeContext) (Record, bool) {
	if len(ctx.volumes) < 5 {
		return Record{}, false
	}
	tail := ctx.volumes[len(ctx.volumes)-5:]
	for i := 1; i < len(tail); i++ {
		if tail[i] >= tail[i-1] {
			return Record{}, false
		}
	}
	return d.mark(ctx, "Volume Contraction", 65, Neutral,
		"Five straight bars of shrinking volume"), true
}

func obvSeries(closes, volumes []float64) []float64 {
	obv := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv[i] = obv[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			obv[i] = obv[i-1] - volumes[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	return obv
}

func (d *VolumeDetector) obvTrend(ctx *volumeContext) (Record, bool) {
	if len(ctx.closes) < 10 {
		return Record{}, false
	}
	obv := obvSeries(ctx.closes, ctx.volumes)
	slope := trendSlope(obv, 10)
	if slope > 0 && trendSlope(ctx.closes, 10) > 0 {
		return d.mark(ctx, "OBV Uptrend", 77, Bullish,
			"On balance volume trending up with price"), true
	}
	if slope < 0 && trendSlope(ctx.closes, 10) < 0 {
		return d.mark(ctx, "OBV Downtrend", 77, Bearish,
			"On balance volume trending down with price"), true
	}
	return Record{}, false
}

func (d *VolumeDetector) vptTrend(ctx *volumeContext) (Record, bool) {
	if len(ctx.closes) < 10 {
		return Record{}, false
	}
	vpt := make([]float64, len(ctx.closes))
	for i := 1; i < len(ctx.closes); i++ {
		vpt[i] = vpt[i-1]
		if ctx.closes[i-1] != 0 {
			vpt[i] += ctx.volumes[i] * (ctx.closes[i] - ctx.closes[i-1]) / ctx.closes[i-1]
		}
	}
	slope := trendSlope(vpt, 10)
	if slope > 0 {
		return d.mark(ctx, "VPT Uptrend", 73, Bullish,
			"Volume price trend rising"), true
	}
	if slope < 0 {
		return d.mark(ctx, "VPT Downtrend", 73, Bearish,
			"Volume price trend falling"), true
	}
	return Record{}, false
}

// heavyRejection: elevated volume plus a dominant wick marks rejection of
// one side of the bar's range
func (d *VolumeDetector) heavyRejection(ctx *volumeContext) (Record, bool) {
	if ctx.ma20 <= 0 || ctx.volumes[ctx.lastIdx] <= ctx.ma20*1.5 {
		return Record{}, false
	}
	b := ctx.last
	bd := body(b)
	if bd <= 0 {
		return Record{}, false
	}
	if lowerShadow(b) > 2*bd && lowerShadow(b) > upperShadow(b) {
		return d.mark(ctx, "Heavy Volume Rejection", 80, Bullish,
			"Lower prices rejected on heavy volume"), true
	}
	if upperShadow(b) > 2*bd && upperShadow(b) > lowerShadow(b) {
		return d.mark(ctx, "Heavy Volume Rejection", 80, Bearish,
			"Higher prices rejected on heavy volume"), true
	}
	return Record{}, false
}
