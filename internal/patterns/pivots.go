package patterns

import (
	"time"

	"pattern-hero/internal/market"
)

// PivotKind distinguishes local maxima from local minima
type PivotKind string

const (
	PivotHigh PivotKind = "high"
	PivotLow  PivotKind = "low"
)

// Pivot is a local price extremum used as a structural anchor for
// geometric pattern validation. Derived per call, never persisted.
type Pivot struct {
	Index     int
	Price     float64
	Kind      PivotKind
	Timestamp time.Time
}

// pivotTolerance allows near-equal neighbors to still count as a pivot, so
// flat segments do not swallow every extremum. Relative, 0.1%.
const pivotTolerance = 0.001

// FindPivots locates pivot highs and lows. A bar is a pivot high when its
// high is >= every high within window bars on both sides (within tolerance),
// symmetric for lows. Only interior bars qualify; a bar satisfying both
// tests is reported as a high. Results come back in ascending index order.
func FindPivots(series market.Series, window int) []Pivot {
	if window < 1 || len(series) < 2*window+1 {
		return nil
	}

	var pivots []Pivot
	for i := window; i < len(series)-window; i++ {
		high := series[i].High
		low := series[i].Low

		isHigh := true
		isLow := true
		for j := 1; j <= window; j++ {
			if high < series[i-j].High*(1-pivotTolerance) || high < series[i+j].High*(1-pivotTolerance) {
				isHigh = false
			}
			if low > series[i-j].Low*(1+pivotTolerance) || low > series[i+j].Low*(1+pivotTolerance) {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		// high wins when a bar qualifies both ways
		if isHigh {
			pivots = append(pivots, Pivot{Index: i, Price: high, Kind: PivotHigh, Timestamp: series[i].Timestamp})
		} else if isLow {
			pivots = append(pivots, Pivot{Index: i, Price: low, Kind: PivotLow, Timestamp: series[i].Timestamp})
		}
	}
	return pivots
}
