package patterns

import "pattern-hero/internal/market"

// HeuristicRecognizer recognizes candle shape families with body/shadow
// ratio tests. It reports the most recent occurrence of each family.
type HeuristicRecognizer struct{}

// candleCheck evaluates one shape family at index i
type candleCheck func(s market.Series, i int) (Direction, bool)

type candleFamily struct {
	name    string
	bars    int // minimum bars of context the check needs
	score   int
	check   candleCheck
}

var candleFamilies = []candleFamily{
	{"Doji", 1, 70, isDoji},
	{"Dragonfly Doji", 1, 72, isDragonflyDoji},
	{"Gravestone Doji", 1, 72, isGravestoneDoji},
	{"Hammer", 2, 75, isHammer},
	{"Hanging Man", 2, 72, isHangingMan},
	{"Shooting Star", 2, 74, isShootingStar},
	{"Marubozu", 1, 78, isMarubozu},
	{"Spinning Top", 1, 60, isSpinningTop},
	{"Engulfing Pattern", 2, 80, isEngulfing},
	{"Piercing Pattern", 2, 76, isPiercing},
	{"Dark Cloud Cover", 2, 76, isDarkCloudCover},
	{"Harami Pattern", 2, 65, isHarami},
	{"Harami Cross", 2, 68, isHaramiCross},
	{"Thrusting Pattern", 2, 62, isThrusting},
	{"Morning Star", 3, 82, isMorningStar},
	{"Evening Star", 3, 82, isEveningStar},
	{"Three White Soldiers", 3, 85, isThreeWhiteSoldiers},
	{"Three Black Crows", 3, 85, isThreeBlackCrows},
	{"Three Inside Up/Down", 3, 75, isThreeInside},
	{"Three Outside Up/Down", 3, 75, isThreeOutside},
	{"Advance Block", 3, 65, isAdvanceBlock},
}

// Recognize scans every family from the latest bar backwards and reports
// each family's most recent occurrence, if any
func (HeuristicRecognizer) Recognize(series market.Series) []CandleHit {
	var hits []CandleHit
	for _, family := range candleFamilies {
		for i := len(series) - 1; i >= family.bars-1; i-- {
			direction, ok := family.check(series, i)
			if !ok {
				continue
			}
			hits = append(hits, CandleHit{
				Name:      family.name,
				Index:     i,
				Score:     family.score,
				Direction: direction,
			})
			break
		}
	}
	return hits
}

func body(b market.Bar) float64 {
	if b.Close >= b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

func candleRange(b market.Bar) float64 { return b.High - b.Low }

func upperShadow(b market.Bar) float64 {
	if b.Close >= b.Open {
		return b.High - b.Close
	}
	return b.High - b.Open
}

func lowerShadow(b market.Bar) float64 {
	if b.Close >= b.Open {
		return b.Open - b.Low
	}
	return b.Close - b.Low
}

func isBullCandle(b market.Bar) bool { return b.Close > b.Open }
func isBearCandle(b market.Bar) bool { return b.Close < b.Open }

func isDoji(s market.Series, i int) (Direction, bool) {
	b := s[i]
	r := candleRange(b)
	if r <= 0 {
		return Neutral, false
	}
	return Neutral, body(b) < r*0.1
}

func isDragonflyDoji(s market.Series, i int) (Direction, bool) {
	b := s[i]
	r := candleRange(b)
	if r <= 0 || body(b) >= r*0.1 {
		return Neutral, false
	}
	return Bullish, lowerShadow(b) > r*0.6 && upperShadow(b) < r*0.1
}

func isGravestoneDoji(s market.Series, i int) (Direction, bool) {
	b := s[i]
	r := candleRange(b)
	if r <= 0 || body(b) >= r*0.1 {
		return Neutral, false
	}
	return Bearish, upperShadow(b) > r*0.6 && lowerShadow(b) < r*0.1
}

// hammerShape: long lower shadow, small body, small upper shadow
func hammerShape(b market.Bar) bool {
	bd := body(b)
	return bd > 0 && lowerShadow(b) > 2*bd && upperShadow(b) < bd
}

func isHammer(s market.Series, i int) (Direction, bool) {
	if !hammerShape(s[i]) {
		return Neutral, false
	}
	// hammer is a reversal: it needs a preceding down candle
	if i > 0 && !isBearCandle(s[i-1]) {
		return Neutral, false
	}
	return Bullish, true
}

func isHangingMan(s market.Series, i int) (Direction, bool) {
	if !hammerShape(s[i]) {
		return Neutral, false
	}
	if i > 0 && !isBullCandle(s[i-1]) {
		return Neutral, false
	}
	return Bearish, true
}

func isShootingStar(s market.Series, i int) (Direction, bool) {
	b := s[i]
	bd := body(b)
	if bd <= 0 || upperShadow(b) < 2*bd || lowerShadow(b) > bd*0.3 {
		return Neutral, false
	}
	if i > 0 && !isBullCandle(s[i-1]) {
		return Neutral, false
	}
	return Bearish, true
}

func isMarubozu(s market.Series, i int) (Direction, bool) {
	b := s[i]
	r := candleRange(b)
	if r <= 0 || body(b) < r*0.95 {
		return Neutral, false
	}
	if isBullCandle(b) {
		return Bullish, true
	}
	return Bearish, true
}

func isSpinningTop(s market.Series, i int) (Direction, bool) {
	b := s[i]
	r := candleRange(b)
	if r <= 0 {
		return Neutral, false
	}
	bd := body(b)
	return Neutral, bd >= r*0.1 && bd <= r*0.3 && upperShadow(b) > bd && lowerShadow(b) > bd
}

func isEngulfing(s market.Series, i int) (Direction, bool) {
	if i < 1 {
		return Neutral, false
	}
	prev, cur := s[i-1], s[i]
	if isBearCandle(prev) && isBullCandle(cur) &&
		cur.Open <= prev.Close && cur.Close >= prev.Open {
		return Bullish, true
	}
	if isBullCandle(prev) && isBearCandle(cur) &&
		cur.Open >= prev.Close && cur.Close <= prev.Open {
		return Bearish, true
	}
	return Neutral, false
}

func isPiercing(s market.Series, i int) (Direction, bool) {
	if i < 1 {
		return Neutral, false
	}
	prev, cur := s[i-1], s[i]
	if !isBearCandle(prev) || !isBullCandle(cur) {
		return Neutral, false
	}
	midpoint := (prev.Open + prev.Close) / 2
	return Bullish, cur.Open < prev.Close && cur.Close > midpoint && cur.Close < prev.Open
}

func isDarkCloudCover(s market.Series, i int) (Direction, bool) {
	if i < 1 {
		return Neutral, false
	}
	prev, cur := s[i-1], s[i]
	if !isBullCandle(prev) || !isBearCandle(cur) {
		return Neutral, false
	}
	midpoint := (prev.Open + prev.Close) / 2
	return Bearish, cur.Open > prev.Close && cur.Close < midpoint && cur.Close > prev.Open
}

// haramiShape: current body contained inside the previous, larger body
func haramiShape(prev, cur market.Bar) bool {
	if body(prev) <= 0 || body(cur) >= body(prev)*0.6 {
		return false
	}
	prevHigh := max(prev.Open, prev.Close)
	prevLow := min(prev.Open, prev.Close)
	curHigh := max(cur.Open, cur.Close)
	curLow := min(cur.Open, cur.Close)
	return curHigh <= prevHigh && curLow >= prevLow
}

func isHarami(s market.Series, i int) (Direction, bool) {
	if i < 1 {
		return Neutral, false
	}
	prev, cur := s[i-1], s[i]
	if !haramiShape(prev, cur) {
		return Neutral, false
	}
	if isBearCandle(prev) {
		return Bullish, true
	}
	if isBullCandle(prev) {
		return Bearish, true
	}
	return Neutral, false
}

func isHaramiCross(s market.Series, i int) (Direction, bool) {
	direction, ok := isHarami(s, i)
	if !ok {
		return Neutral, false
	}
	if _, doji := isDoji(s, i); !doji {
		return Neutral, false
	}
	return direction, true
}

// thrusting: bull close pushes into a bear body but stalls below its midpoint
func isThrusting(s market.Series, i int) (Direction, bool) {
	if i < 1 {
		return Neutral, false
	}
	prev, cur := s[i-1], s[i]
	if !isBearCandle(prev) || !isBullCandle(cur) {
		return Neutral, false
	}
	midpoint := (prev.Open + prev.Close) / 2
	return Bearish, cur.Open < prev.Low && cur.Close > prev.Close && cur.Close < midpoint
}

func isMorningStar(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	c1, c2, c3 := s[i-2], s[i-1], s[i]

	// long bear, small indecision body, long bull closing above c1 midpoint
	if !isBearCandle(c1) || body(c1) < candleRange(c1)*0.6 {
		return Neutral, false
	}
	if body(c2) > body(c1)*0.4 {
		return Neutral, false
	}
	if !isBullCandle(c3) || body(c3) < candleRange(c3)*0.6 {
		return Neutral, false
	}
	return Bullish, c3.Close >= (c1.Open+c1.Close)/2
}

func isEveningStar(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	c1, c2, c3 := s[i-2], s[i-1], s[i]

	if !isBullCandle(c1) || body(c1) < candleRange(c1)*0.6 {
		return Neutral, false
	}
	if body(c2) > body(c1)*0.4 {
		return Neutral, false
	}
	if !isBearCandle(c3) || body(c3) < candleRange(c3)*0.6 {
		return Neutral, false
	}
	return Bearish, c3.Close <= (c1.Open+c1.Close)/2
}

func isThreeWhiteSoldiers(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	for j := i - 2; j <= i; j++ {
		b := s[j]
		if !isBullCandle(b) || body(b) < candleRange(b)*0.6 {
			return Neutral, false
		}
		if j > i-2 && b.Close <= s[j-1].Close {
			return Neutral, false
		}
	}
	return Bullish, true
}

func isThreeBlackCrows(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	for j := i - 2; j <= i; j++ {
		b := s[j]
		if !isBearCandle(b) || body(b) < candleRange(b)*0.6 {
			return Neutral, false
		}
		if j > i-2 && b.Close >= s[j-1].Close {
			return Neutral, false
		}
	}
	return Bearish, true
}

// three inside: harami followed by a confirming close beyond the first body
func isThreeInside(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	direction, ok := isHarami(s, i-1)
	if !ok {
		return Neutral, false
	}
	first := s[i-2]
	if direction == Bullish && s[i].Close > max(first.Open, first.Close) {
		return Bullish, true
	}
	if direction == Bearish && s[i].Close < min(first.Open, first.Close) {
		return Bearish, true
	}
	return Neutral, false
}

// three outside: engulfing followed by a confirming close in its direction
func isThreeOutside(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	direction, ok := isEngulfing(s, i-1)
	if !ok {
		return Neutral, false
	}
	if direction == Bullish && s[i].Close > s[i-1].Close {
		return Bullish, true
	}
	if direction == Bearish && s[i].Close < s[i-1].Close {
		return Bearish, true
	}
	return Neutral, false
}

// advance block: three rising bulls with shrinking bodies and growing upper
// shadows, a sign the advance is stalling
func isAdvanceBlock(s market.Series, i int) (Direction, bool) {
	if i < 2 {
		return Neutral, false
	}
	c1, c2, c3 := s[i-2], s[i-1], s[i]
	if !isBullCandle(c1) || !isBullCandle(c2) || !isBullCandle(c3) {
		return Neutral, false
	}
	if c2.Close <= c1.Close || c3.Close <= c2.Close {
		return Neutral, false
	}
	bodiesShrinking := body(c2) < body(c1) && body(c3) < body(c2)
	shadowsGrowing := upperShadow(c3) > upperShadow(c1)
	return Bearish, bodiesShrinking && shadowsGrowing
}
