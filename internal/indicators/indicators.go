// Package indicators computes the technical indicator panel the
// statistical detector evaluates. Every series in a Panel is aligned to
// the input bars, with NaN filling the warmup prefix.
package indicators

import (
	"math"

	"pattern-hero/internal/market"
)

// Panel holds named indicator series, all the same length as the input
type Panel map[string][]float64

// Engine is the capability interface for indicator computation. The
// shipped implementation computes everything from the formulas directly;
// a library-backed engine can replace it behind the same interface.
type Engine interface {
	Compute(series market.Series) Panel
}

// FormulaEngine computes the full panel from first principles
type FormulaEngine struct{}

func NewFormulaEngine() *FormulaEngine { return &FormulaEngine{} }

// Compute builds the complete indicator panel. Series shorter than an
// indicator's warmup simply come back all-NaN for that indicator.
func (e *FormulaEngine) Compute(series market.Series) Panel {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	panel := Panel{}

	panel["sma_20"] = SMA(closes, 20)
	panel["sma_50"] = SMA(closes, 50)
	panel["ema_12"] = EMA(closes, 12)
	panel["ema_26"] = EMA(closes, 26)

	panel["rsi_14"] = RSI(closes, 14)

	macd, signal, hist := MACD(closes, 12, 26, 9)
	panel["macd"] = macd
	panel["macd_signal"] = signal
	panel["macd_hist"] = hist

	upper, middle, lower := Bollinger(closes, 20, 2)
	panel["bb_upper"] = upper
	panel["bb_middle"] = middle
	panel["bb_lower"] = lower

	k, dLine := Stochastic(highs, lows, closes, 14, 3)
	panel["stoch_k"] = k
	panel["stoch_d"] = dLine

	panel["williams_r"] = WilliamsR(highs, lows, closes, 14)
	panel["momentum_10"] = Momentum(closes, 10)
	panel["cci_20"] = CCI(highs, lows, closes, 20)
	panel["atr_14"] = ATR(highs, lows, closes, 14)

	adx, plusDI, minusDI := ADX(highs, lows, closes, 14)
	panel["adx_14"] = adx
	panel["plus_di"] = plusDI
	panel["minus_di"] = minusDI

	panel["sar"] = ParabolicSAR(highs, lows, 0.02, 0.2)

	aroonUp, aroonDown := Aroon(highs, lows, 25)
	panel["aroon_up"] = aroonUp
	panel["aroon_down"] = aroonDown

	panel["mfi_14"] = MFI(highs, lows, closes, volumes, 14)
	panel["ultimate_osc"] = UltimateOscillator(highs, lows, closes, 7, 14, 28)
	panel["obv"] = OBV(closes, volumes)
	panel["vpt"] = VPT(closes, volumes)
	panel["trix"] = TRIX(closes, 15)
	panel["roc_12"] = ROC(closes, 12)

	tenkan := midpoint(highs, lows, 9)
	kijun := midpoint(highs, lows, 26)
	panel["tenkan"] = tenkan
	panel["kijun"] = kijun

	kUpper, kLower := Keltner(highs, lows, closes, 20, 2)
	panel["keltner_upper"] = kUpper
	panel["keltner_lower"] = kLower

	dUpper, dLower := Donchian(highs, lows, 20)
	panel["donchian_upper"] = dUpper
	panel["donchian_lower"] = dLower

	return panel
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the simple moving average over period bars
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA seeds from the first period's SMA and smooths from there
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	mult := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*mult + out[i-1]
	}
	return out
}

// RSI uses Wilder smoothing of gains and losses
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the line, its signal EMA, and the histogram
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	n := len(closes)
	line = nanSlice(n)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := 0; i < n; i++ {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}

	// signal smooths only the valid portion of the line
	signal = nanSlice(n)
	hist = nanSlice(n)
	start := slow - 1
	if start >= n {
		return line, signal, hist
	}
	valid := line[start:]
	sigValid := EMA(valid, signalPeriod)
	for i, v := range sigValid {
		signal[start+i] = v
		if !math.IsNaN(v) && !math.IsNaN(line[start+i]) {
			hist[start+i] = line[start+i] - v
		}
	}
	return line, signal, hist
}

// Bollinger returns upper, middle, lower bands at stddev multiples
func Bollinger(closes []float64, period int, mult float64) (upper, middle, lower []float64) {
	n := len(closes)
	middle = SMA(closes, period)
	upper = nanSlice(n)
	lower = nanSlice(n)
	for i := period - 1; i < n; i++ {
		mean := middle[i]
		if math.IsNaN(mean) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mean + mult*sd
		lower[i] = mean - mult*sd
	}
	return upper, middle, lower
}

// Stochastic returns %K and its %D smoothing
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(closes)
	k = nanSlice(n)
	for i := kPeriod - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - kPeriod + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			k[i] = 50
		} else {
			k[i] = (closes[i] - ll) / (hh - ll) * 100
		}
	}
	d = smoothValid(k, dPeriod)
	return k, d
}

// smoothValid applies an SMA over a series that may have a NaN prefix
func smoothValid(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := range values {
		if i < period-1 {
			continue
		}
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// WilliamsR ranges from -100 (low of range) to 0 (high of range)
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	for i := period - 1; i < len(closes); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			out[i] = -50
		} else {
			out[i] = (hh - closes[i]) / (hh - ll) * -100
		}
	}
	return out
}

// Momentum is the raw close difference over period bars
func Momentum(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	for i := period; i < len(closes); i++ {
		out[i] = closes[i] - closes[i-period]
	}
	return out
}

// CCI uses the classic 0.015 constant over typical prices
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	out := nanSlice(n)
	for i := period - 1; i < n; i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += tp[j]
		}
		mean /= float64(period)
		dev := 0.0
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			out[i] = 0
		} else {
			out[i] = (tp[i] - mean) / (0.015 * dev)
		}
	}
	return out
}

func trueRange(highs, lows, closes []float64, i int) float64 {
	if i == 0 {
		return highs[0] - lows[0]
	}
	tr := highs[i] - lows[i]
	if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
		tr = hc
	}
	if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
		tr = lc
	}
	return tr
}

// ATR uses Wilder smoothing of the true range
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < period+1 {
		return out
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trueRange(highs, lows, closes, i)
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + trueRange(highs, lows, closes, i)) / float64(period)
	}
	return out
}

// ADX returns the index plus the +DI and -DI lines
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(closes)
	adx = nanSlice(n)
	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	if n < 2*period+1 {
		return adx, plusDI, minusDI
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += trueRange(highs, lows, closes, i)
		p, m := directionalMoves(highs, lows, i)
		smPlus += p
		smMinus += m
	}

	dx := nanSlice(n)
	setDI := func(i int) {
		if smTR > 0 {
			plusDI[i] = smPlus / smTR * 100
			minusDI[i] = smMinus / smTR * 100
			if sum := plusDI[i] + minusDI[i]; sum > 0 {
				dx[i] = math.Abs(plusDI[i]-minusDI[i]) / sum * 100
			}
		}
	}
	setDI(period)

	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + trueRange(highs, lows, closes, i)
		p, m := directionalMoves(highs, lows, i)
		smPlus = smPlus - smPlus/float64(period) + p
		smMinus = smMinus - smMinus/float64(period) + m
		setDI(i)
	}

	sum := 0.0
	for i := period; i < 2*period; i++ {
		sum += dx[i]
	}
	adx[2*period-1] = sum / float64(period)
	for i := 2 * period; i < n; i++ {
		adx[i] = (adx[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return adx, plusDI, minusDI
}

func directionalMoves(highs, lows []float64, i int) (plus, minus float64) {
	up := highs[i] - highs[i-1]
	down := lows[i-1] - lows[i]
	if up > down && up > 0 {
		plus = up
	}
	if down > up && down > 0 {
		minus = down
	}
	return plus, minus
}

// ParabolicSAR with the standard acceleration schedule
func ParabolicSAR(highs, lows []float64, step, maxStep float64) []float64 {
	n := len(highs)
	out := nanSlice(n)
	if n < 2 {
		return out
	}

	uptrend := highs[1] >= highs[0]
	af := step
	var sar, ep float64
	if uptrend {
		sar = lows[0]
		ep = highs[1]
	} else {
		sar = highs[0]
		ep = lows[1]
	}
	out[1] = sar

	for i := 2; i < n; i++ {
		sar = sar + af*(ep-sar)
		if uptrend {
			if lows[i] < sar {
				uptrend = false
				sar = ep
				ep = lows[i]
				af = step
			} else {
				if highs[i] > ep {
					ep = highs[i]
					af = math.Min(af+step, maxStep)
				}
			}
		} else {
			if highs[i] > sar {
				uptrend = true
				sar = ep
				ep = highs[i]
				af = step
			} else {
				if lows[i] < ep {
					ep = lows[i]
					af = math.Min(af+step, maxStep)
				}
			}
		}
		out[i] = sar
	}
	return out
}

// Aroon measures bars since the window high and low
func Aroon(highs, lows []float64, period int) (up, down []float64) {
	n := len(highs)
	up = nanSlice(n)
	down = nanSlice(n)
	for i := period; i < n; i++ {
		hiIdx, loIdx := i, i
		for j := i - period; j <= i; j++ {
			if highs[j] >= highs[hiIdx] {
				hiIdx = j
			}
			if lows[j] <= lows[loIdx] {
				loIdx = j
			}
		}
		up[i] = float64(period-(i-hiIdx)) / float64(period) * 100
		down[i] = float64(period-(i-loIdx)) / float64(period) * 100
	}
	return up, down
}

// MFI is a volume weighted RSI over typical prices
func MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < period+1 {
		return out
	}
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	for i := period; i < n; i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			flow := tp[j] * volumes[j]
			if tp[j] > tp[j-1] {
				pos += flow
			} else if tp[j] < tp[j-1] {
				neg += flow
			}
		}
		if neg == 0 {
			out[i] = 100
		} else {
			out[i] = 100 - 100/(1+pos/neg)
		}
	}
	return out
}

// UltimateOscillator blends buying pressure over three horizons (4:2:1)
func UltimateOscillator(highs, lows, closes []float64, p1, p2, p3 int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < p3+1 {
		return out
	}
	bp := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		trueLow := math.Min(lows[i], closes[i-1])
		trueHigh := math.Max(highs[i], closes[i-1])
		bp[i] = closes[i] - trueLow
		tr[i] = trueHigh - trueLow
	}
	ratio := func(i, period int) float64 {
		var sumBP, sumTR float64
		for j := i - period + 1; j <= i; j++ {
			sumBP += bp[j]
			sumTR += tr[j]
		}
		if sumTR == 0 {
			return 0.5
		}
		return sumBP / sumTR
	}
	for i := p3; i < n; i++ {
		out[i] = 100 * (4*ratio(i, p1) + 2*ratio(i, p2) + ratio(i, p3)) / 7
	}
	return out
}

// VPT accumulates volume scaled by the fractional close change
func VPT(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		out[i] = out[i-1]
		if closes[i-1] != 0 {
			out[i] += volumes[i] * (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return out
}

// OBV is the cumulative signed volume line
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// TRIX is the rate of change of a triple-smoothed EMA, in percent
func TRIX(closes []float64, period int) []float64 {
	e1 := EMA(closes, period)
	e2 := emaValid(e1, period)
	e3 := emaValid(e2, period)
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		if !math.IsNaN(e3[i]) && !math.IsNaN(e3[i-1]) && e3[i-1] != 0 {
			out[i] = (e3[i] - e3[i-1]) / e3[i-1] * 100
		}
	}
	return out
}

// emaValid runs an EMA over the non-NaN tail of a series
func emaValid(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out
	}
	tail := EMA(values[start:], period)
	for i, v := range tail {
		out[start+i] = v
	}
	return out
}

// ROC is the percentage change over period bars
func ROC(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	for i := period; i < len(closes); i++ {
		if closes[i-period] != 0 {
			out[i] = (closes[i] - closes[i-period]) / closes[i-period] * 100
		}
	}
	return out
}

// midpoint is the Ichimoku-style (window high + window low) / 2
func midpoint(highs, lows []float64, period int) []float64 {
	out := nanSlice(len(highs))
	for i := period - 1; i < len(highs); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		out[i] = (hh + ll) / 2
	}
	return out
}

// Keltner channels: 20 SMA of closes shifted by an ATR multiple
func Keltner(highs, lows, closes []float64, period int, atrMult float64) (upper, lower []float64) {
	n := len(closes)
	mid := SMA(closes, period)
	atr := ATR(highs, lows, closes, period)
	upper = nanSlice(n)
	lower = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(mid[i]) && !math.IsNaN(atr[i]) {
			upper[i] = mid[i] + atrMult*atr[i]
			lower[i] = mid[i] - atrMult*atr[i]
		}
	}
	return upper, lower
}

// Donchian channels over the prior window, excluding the current bar so a
// new extreme registers as a break
func Donchian(highs, lows []float64, period int) (upper, lower []float64) {
	n := len(highs)
	upper = nanSlice(n)
	lower = nanSlice(n)
	for i := period; i < n; i++ {
		hh, ll := highs[i-period], lows[i-period]
		for j := i - period; j < i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		upper[i] = hh
		lower[i] = ll
	}
	return upper, lower
}
