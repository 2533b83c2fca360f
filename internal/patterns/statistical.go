package patterns

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"pattern-hero/internal/indicators"
	"pattern-hero/internal/market"
)

// RuleConfig holds the tunable thresholds of the statistical rules. Zero
// value is not usable; construct with DefaultRuleConfig.
type RuleConfig struct {
	RSIOverbought      float64
	RSIOversold        float64
	StochOverbought    float64
	StochOversold      float64
	WilliamsOverbought float64
	WilliamsOversold   float64
	CCIExtreme         float64
	ADXTrending        float64
	ADXWeak            float64
	MFIOverbought      float64
	MFIOversold        float64
	UOOverbought       float64
	UOOversold         float64
	AroonStrong        float64
	ATRExpansion       float64
	ATRContraction     float64
	BBSqueezeRatio     float64
}

func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		RSIOverbought:      70,
		RSIOversold:        30,
		StochOverbought:    80,
		StochOversold:      20,
		WilliamsOverbought: -20,
		WilliamsOversold:   -80,
		CCIExtreme:         100,
		ADXTrending:        25,
		ADXWeak:            20,
		MFIOverbought:      80,
		MFIOversold:        20,
		UOOverbought:       70,
		UOOversold:         30,
		AroonStrong:        70,
		ATRExpansion:       1.5,
		ATRContraction:     0.5,
		BBSqueezeRatio:     0.5,
	}
}

// StatisticalDetector evaluates indicator-derived rules at the latest bar
type StatisticalDetector struct {
	engine indicators.Engine
	config RuleConfig
	logger zerolog.Logger
}

func NewStatisticalDetector(engine indicators.Engine, config RuleConfig, logger zerolog.Logger) *StatisticalDetector {
	if engine == nil {
		engine = indicators.NewFormulaEngine()
	}
	return &StatisticalDetector{
		engine: engine,
		config: config,
		logger: logger.With().Str("component", "StatisticalDetector").Logger(),
	}
}

// statContext carries the computed panel plus the latest bar's position
type statContext struct {
	series market.Series
	panel  indicators.Panel
	last   market.Bar
	i      int // index of the latest bar
}

// at reads panel value name[idx]; NaN or missing comes back (0, false) so
// each rule skips cleanly when its indicator has not warmed up
func (c *statContext) at(name string, idx int) (float64, bool) {
	s, ok := c.panel[name]
	if !ok || idx < 0 || idx >= len(s) || math.IsNaN(s[idx]) {
		return 0, false
	}
	return s[idx], true
}

func (c *statContext) cur(name string) (float64, bool)  { return c.at(name, c.i) }
func (c *statContext) prev(name string) (float64, bool) { return c.at(name, c.i-1) }

type statCheck func(ctx *statContext) (Record, bool)

// Detect needs 30 bars minimum so the core indicators have warmed up
func (d *StatisticalDetector) Detect(series market.Series) []Record {
	if len(series) < 30 {
		return nil
	}

	ctx := &statContext{
		series: series,
		panel:  d.engine.Compute(series),
		last:   series[len(series)-1],
		i:      len(series) - 1,
	}

	checks := []statCheck{
		d.bbSqueeze,
		d.bbBreakout,
		d.bbBounce,
		d.rsiExtreme,
		d.rsiDivergence,
		d.macdCrossover,
		d.macdZeroCross,
		d.stochExtreme,
		d.williamsExtreme,
		d.momentumShift,
		d.cciExtreme,
		d.atrRegime,
		d.adxRegime,
		d.sarFlip,
		d.aroonSignal,
		d.mfiExtreme,
		d.ultimateSignal,
		d.obvSignal,
		d.trixCross,
		d.rocCross,
		d.dmiCrossover,
		d.ichimokuCross,
		d.keltnerBreak,
		d.donchianBreak,
	}

	var records []Record
	for _, check := range checks {
		if r, ok := check(ctx); ok {
			records = append(records, r)
		}
	}
	return records
}

func (d *StatisticalDetector) mark(ctx *statContext, name string, confidence int, direction Direction, desc string) Record {
	return NewRecord(name, CategoryStatistical, confidence, direction, desc, StatisticalPattern{
		Type:           "statistical_pattern",
		Index:          ctx.i,
		Timestamp:      ctx.last.Timestamp,
		Price:          ctx.last.Close,
		PatternType:    name,
		HighlightColor: directionColor(direction),
	})
}

// bandWidth returns (upper-lower)/middle at idx, NaN-safe
func (ctx *statContext) bandWidth(idx int) (float64, bool) {
	u, ok1 := ctx.at("bb_upper", idx)
	l, ok2 := ctx.at("bb_lower", idx)
	m, ok3 := ctx.at("bb_middle", idx)
	if !ok1 || !ok2 || !ok3 || m == 0 {
		return 0, false
	}
	return (u - l) / m, true
}

func (d *StatisticalDetector) bbSqueeze(ctx *statContext) (Record, bool) {
	width, ok := ctx.bandWidth(ctx.i)
	if !ok {
		return Record{}, false
	}
	var sum float64
	var count int
	for j := ctx.i - 19; j < ctx.i; j++ {
		if w, ok := ctx.bandWidth(j); ok {
			sum += w
			count++
		}
	}
	if count == 0 {
		return Record{}, false
	}
	avg := sum / float64(count)
	if width >= avg*d.config.BBSqueezeRatio {
		return Record{}, false
	}
	return d.mark(ctx, "Bollinger Squeeze", 75, Neutral,
		"Bollinger bands compressed well below their recent width"), true
}

func (d *StatisticalDetector) bbBreakout(ctx *statContext) (Record, bool) {
	upper, ok1 := ctx.cur("bb_upper")
	lower, ok2 := ctx.cur("bb_lower")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if ctx.last.Close > upper {
		return d.mark(ctx, "Bollinger Breakout", 80, Bullish,
			"Close above the upper Bollinger band"), true
	}
	if ctx.last.Close < lower {
		return d.mark(ctx, "Bollinger Breakdown", 80, Bearish,
			"Close below the lower Bollinger band"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) bbBounce(ctx *statContext) (Record, bool) {
	upper, ok1 := ctx.cur("bb_upper")
	lower, ok2 := ctx.cur("bb_lower")
	pUpper, ok3 := ctx.prev("bb_upper")
	pLower, ok4 := ctx.prev("bb_lower")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Record{}, false
	}
	prevClose := ctx.series[ctx.i-1].Close
	if prevClose < pLower && ctx.last.Close > lower {
		return d.mark(ctx, "Bollinger Bounce", 72, Bullish,
			"Price reclaimed the lower Bollinger band"), true
	}
	if prevClose > pUpper && ctx.last.Close < upper {
		return d.mark(ctx, "Bollinger Bounce", 72, Bearish,
			"Price fell back inside the upper Bollinger band"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) rsiExtreme(ctx *statContext) (Record, bool) {
	rsi, ok := ctx.cur("rsi_14")
	if !ok {
		return Record{}, false
	}
	if rsi > d.config.RSIOverbought {
		return d.mark(ctx, "RSI Overbought", 68, Bearish,
			fmt.Sprintf("RSI at %.1f, above the overbought threshold", rsi)), true
	}
	if rsi < d.config.RSIOversold {
		return d.mark(ctx, "RSI Oversold", 68, Bullish,
			fmt.Sprintf("RSI at %.1f, below the oversold threshold", rsi)), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) rsiDivergence(ctx *statContext) (Record, bool) {
	rsi := ctx.panel["rsi_14"]
	if rsi == nil || math.IsNaN(rsi[ctx.i]) || ctx.i < 10 || math.IsNaN(rsi[ctx.i-9]) {
		return Record{}, false
	}
	priceSlope := trendSlope(ctx.series.Closes(), 10)
	rsiSlope := trendSlope(rsi[ctx.i-9:ctx.i+1], 10)
	if priceSlope > 0 && rsiSlope < 0 {
		return d.mark(ctx, "RSI Bearish Divergence", 78, Bearish,
			"Price rising while RSI weakens"), true
	}
	if priceSlope < 0 && rsiSlope > 0 {
		return d.mark(ctx, "RSI Bullish Divergence", 78, Bullish,
			"Price falling while RSI strengthens"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) macdCrossover(ctx *statContext) (Record, bool) {
	macd, ok1 := ctx.cur("macd")
	signal, ok2 := ctx.cur("macd_signal")
	pMacd, ok3 := ctx.prev("macd")
	pSignal, ok4 := ctx.prev("macd_signal")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Record{}, false
	}
	if pMacd <= pSignal && macd > signal {
		return d.mark(ctx, "MACD Bullish Crossover", 75, Bullish,
			"MACD line crossed above its signal line"), true
	}
	if pMacd >= pSignal && macd < signal {
		return d.mark(ctx, "MACD Bearish Crossover", 75, Bearish,
			"MACD line crossed below its signal line"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) macdZeroCross(ctx *statContext) (Record, bool) {
	macd, ok1 := ctx.cur("macd")
	pMacd, ok2 := ctx.prev("macd")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if pMacd <= 0 && macd > 0 {
		return d.mark(ctx, "MACD Zero Cross", 70, Bullish,
			"MACD crossed above the zero line"), true
	}
	if pMacd >= 0 && macd < 0 {
		return d.mark(ctx, "MACD Zero Cross", 70, Bearish,
			"MACD crossed below the zero line"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) stochExtreme(ctx *statContext) (Record, bool) {
	k, ok1 := ctx.cur("stoch_k")
	dl, ok2 := ctx.cur("stoch_d")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if k > d.config.StochOverbought && dl > d.config.StochOverbought {
		return d.mark(ctx, "Stochastic Overbought", 65, Bearish,
			"Both stochastic lines in overbought territory"), true
	}
	if k < d.config.StochOversold && dl < d.config.StochOversold {
		return d.mark(ctx, "Stochastic Oversold", 65, Bullish,
			"Both stochastic lines in oversold territory"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) williamsExtreme(ctx *statContext) (Record, bool) {
	wr, ok := ctx.cur("williams_r")
	if !ok {
		return Record{}, false
	}
	if wr > d.config.WilliamsOverbought {
		return d.mark(ctx, "Williams %R Overbought", 62, Bearish,
			"Williams %R near the top of its range"), true
	}
	if wr < d.config.WilliamsOversold {
		return d.mark(ctx, "Williams %R Oversold", 62, Bullish,
			"Williams %R near the bottom of its range"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) momentumShift(ctx *statContext) (Record, bool) {
	m, ok1 := ctx.cur("momentum_10")
	pm, ok2 := ctx.prev("momentum_10")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if pm <= 0 && m > 0 {
		return d.mark(ctx, "Momentum Shift", 70, Bullish,
			"Momentum turned positive"), true
	}
	if pm >= 0 && m < 0 {
		return d.mark(ctx, "Momentum Shift", 70, Bearish,
			"Momentum turned negative"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) cciExtreme(ctx *statContext) (Record, bool) {
	cci, ok := ctx.cur("cci_20")
	if !ok {
		return Record{}, false
	}
	if cci > d.config.CCIExtreme {
		return d.mark(ctx, "CCI Overbought", 60, Bearish,
			"CCI above +100"), true
	}
	if cci < -d.config.CCIExtreme {
		return d.mark(ctx, "CCI Oversold", 60, Bullish,
			"CCI below -100"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) atrRegime(ctx *statContext) (Record, bool) {
	atr := ctx.panel["atr_14"]
	if atr == nil || math.IsNaN(atr[ctx.i]) {
		return Record{}, false
	}
	var sum float64
	var count int
	for j := max(0, ctx.i-19); j < ctx.i; j++ {
		if !math.IsNaN(atr[j]) {
			sum += atr[j]
			count++
		}
	}
	if count == 0 {
		return Record{}, false
	}
	avg := sum / float64(count)
	if avg <= 0 {
		return Record{}, false
	}
	direction := Bullish
	if ctx.i > 0 && ctx.last.Close < ctx.series[ctx.i-1].Close {
		direction = Bearish
	}
	if atr[ctx.i] > avg*d.config.ATRExpansion {
		return d.mark(ctx, "Volatility Expansion", 72, direction,
			"Average true range expanding sharply"), true
	}
	if atr[ctx.i] < avg*d.config.ATRContraction {
		return d.mark(ctx, "Volatility Contraction", 68, Neutral,
			"Average true range compressed"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) adxRegime(ctx *statContext) (Record, bool) {
	adx, ok := ctx.cur("adx_14")
	if !ok {
		return Record{}, false
	}
	if adx > d.config.ADXTrending {
		direction := Bullish
		plus, ok1 := ctx.cur("plus_di")
		minus, ok2 := ctx.cur("minus_di")
		if ok1 && ok2 && minus > plus {
			direction = Bearish
		}
		return d.mark(ctx, "Strong Trend", 75, direction,
			fmt.Sprintf("ADX at %.1f indicates a trending market", adx)), true
	}
	if adx < d.config.ADXWeak {
		return d.mark(ctx, "Weak Trend", 65, Neutral,
			fmt.Sprintf("ADX at %.1f indicates a ranging market", adx)), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) sarFlip(ctx *statContext) (Record, bool) {
	sar, ok1 := ctx.cur("sar")
	pSar, ok2 := ctx.prev("sar")
	if !ok1 || !ok2 || ctx.i < 1 {
		return Record{}, false
	}
	prevClose := ctx.series[ctx.i-1].Close
	if pSar >= prevClose && sar < ctx.last.Close {
		return d.mark(ctx, "Parabolic SAR Flip", 73, Bullish,
			"SAR flipped below price"), true
	}
	if pSar <= prevClose && sar > ctx.last.Close {
		return d.mark(ctx, "Parabolic SAR Flip", 73, Bearish,
			"SAR flipped above price"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) aroonSignal(ctx *statContext) (Record, bool) {
	up, ok1 := ctx.cur("aroon_up")
	down, ok2 := ctx.cur("aroon_down")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if up > d.config.AroonStrong && up > down {
		return d.mark(ctx, "Aroon Uptrend", 60, Bullish,
			"Aroon up dominating"), true
	}
	if down > d.config.AroonStrong && down > up {
		return d.mark(ctx, "Aroon Downtrend", 60, Bearish,
			"Aroon down dominating"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) mfiExtreme(ctx *statContext) (Record, bool) {
	mfi, ok := ctx.cur("mfi_14")
	if !ok {
		return Record{}, false
	}
	if mfi > d.config.MFIOverbought {
		return d.mark(ctx, "MFI Overbought", 60, Bearish,
			"Money flow index stretched to the upside"), true
	}
	if mfi < d.config.MFIOversold {
		return d.mark(ctx, "MFI Oversold", 60, Bullish,
			"Money flow index stretched to the downside"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) ultimateSignal(ctx *statContext) (Record, bool) {
	uo, ok := ctx.cur("ultimate_osc")
	if !ok {
		return Record{}, false
	}
	if uo > d.config.UOOverbought {
		return d.mark(ctx, "Ultimate Oscillator Overbought", 60, Bearish,
			"Ultimate oscillator above its overbought level"), true
	}
	if uo < d.config.UOOversold {
		return d.mark(ctx, "Ultimate Oscillator Oversold", 60, Bullish,
			"Ultimate oscillator below its oversold level"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) obvSignal(ctx *statContext) (Record, bool) {
	obv := ctx.panel["obv"]
	if obv == nil || ctx.i < 10 {
		return Record{}, false
	}
	slope := trendSlope(obv[:ctx.i+1], 10)
	if slope > 0 {
		return d.mark(ctx, "OBV Rising", 65, Bullish,
			"On balance volume trending higher"), true
	}
	if slope < 0 {
		return d.mark(ctx, "OBV Falling", 65, Bearish,
			"On balance volume trending lower"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) trixCross(ctx *statContext) (Record, bool) {
	t, ok1 := ctx.cur("trix")
	pt, ok2 := ctx.prev("trix")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if pt <= 0 && t > 0 {
		return d.mark(ctx, "TRIX Zero Cross", 67, Bullish,
			"TRIX crossed above zero"), true
	}
	if pt >= 0 && t < 0 {
		return d.mark(ctx, "TRIX Zero Cross", 67, Bearish,
			"TRIX crossed below zero"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) rocCross(ctx *statContext) (Record, bool) {
	r, ok1 := ctx.cur("roc_12")
	pr, ok2 := ctx.prev("roc_12")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if pr <= 0 && r > 0 {
		return d.mark(ctx, "ROC Zero Cross", 67, Bullish,
			"Rate of change turned positive"), true
	}
	if pr >= 0 && r < 0 {
		return d.mark(ctx, "ROC Zero Cross", 67, Bearish,
			"Rate of change turned negative"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) dmiCrossover(ctx *statContext) (Record, bool) {
	plus, ok1 := ctx.cur("plus_di")
	minus, ok2 := ctx.cur("minus_di")
	pPlus, ok3 := ctx.prev("plus_di")
	pMinus, ok4 := ctx.prev("minus_di")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Record{}, false
	}
	if pPlus <= pMinus && plus > minus {
		return d.mark(ctx, "DMI Bullish Crossover", 70, Bullish,
			"+DI crossed above -DI"), true
	}
	if pPlus >= pMinus && plus < minus {
		return d.mark(ctx, "DMI Bearish Crossover", 70, Bearish,
			"+DI crossed below -DI"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) ichimokuCross(ctx *statContext) (Record, bool) {
	tenkan, ok1 := ctx.cur("tenkan")
	kijun, ok2 := ctx.cur("kijun")
	pTenkan, ok3 := ctx.prev("tenkan")
	pKijun, ok4 := ctx.prev("kijun")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Record{}, false
	}
	if pTenkan <= pKijun && tenkan > kijun {
		return d.mark(ctx, "Ichimoku Bullish Cross", 70, Bullish,
			"Tenkan-sen crossed above kijun-sen"), true
	}
	if pTenkan >= pKijun && tenkan < kijun {
		return d.mark(ctx, "Ichimoku Bearish Cross", 70, Bearish,
			"Tenkan-sen crossed below kijun-sen"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) keltnerBreak(ctx *statContext) (Record, bool) {
	upper, ok1 := ctx.cur("keltner_upper")
	lower, ok2 := ctx.cur("keltner_lower")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if ctx.last.Close > upper {
		return d.mark(ctx, "Keltner Channel Breakout", 72, Bullish,
			"Close above the upper Keltner channel"), true
	}
	if ctx.last.Close < lower {
		return d.mark(ctx, "Keltner Channel Breakdown", 72, Bearish,
			"Close below the lower Keltner channel"), true
	}
	return Record{}, false
}

func (d *StatisticalDetector) donchianBreak(ctx *statContext) (Record, bool) {
	upper, ok1 := ctx.cur("donchian_upper")
	lower, ok2 := ctx.cur("donchian_lower")
	if !ok1 || !ok2 {
		return Record{}, false
	}
	if ctx.last.Close > upper {
		return d.mark(ctx, "Donchian Channel Breakout", 72, Bullish,
			"Close above the prior Donchian channel high"), true
	}
	if ctx.last.Close < lower {
		return d.mark(ctx, "Donchian Channel Breakdown", 72, Bearish,
			"Close below the prior Donchian channel low"), true
	}
	return Record{}, false
}
