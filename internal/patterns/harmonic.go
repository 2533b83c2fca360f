package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"pattern-hero/internal/market"
)

const (
	harmonicMinBars   = 50
	harmonicPivotSpan = 5

	// merge policy for overlapping structures
	overlapMergeThreshold = 0.5
	mergeBoostPerPattern  = 3
	mergeBoostCap         = 10
	harmonicKeepTop       = 3
)

var fibLadder = []float64{0.236, 0.382, 0.5, 0.618, 0.786, 1.0, 1.272, 1.618}

// ratioBand is an inclusive Fibonacci ratio window
type ratioBand struct{ lo, hi float64 }

func (b ratioBand) contains(r float64) bool { return r >= b.lo && r <= b.hi }

// harmonicTemplate names a structure and the leg ratio bands it must
// satisfy. Band keys reference legs of the XABCD labeling; 4-point
// templates use the AB/CD labeling instead.
type harmonicTemplate struct {
	name       string
	points     int
	confidence int
	bands      map[string]ratioBand
}

var harmonicTemplates = []harmonicTemplate{
	{"Gartley", 5, 85, map[string]ratioBand{
		"ab_xa": {0.55, 0.68},
		"bc_ab": {0.35, 0.9},
		"cd_bc": {1.1, 1.7},
		"ad_xa": {0.75, 0.82},
	}},
	{"Butterfly", 5, 82, map[string]ratioBand{
		"ab_xa": {0.75, 0.82},
		"ad_xa": {1.25, 1.65},
	}},
	{"Bat", 5, 80, map[string]ratioBand{
		"ab_xa": {0.35, 0.52},
		"ad_xa": {0.85, 0.92},
	}},
	{"Crab", 5, 88, map[string]ratioBand{
		"ad_xa": {1.55, 1.68},
	}},
	{"Deep Crab", 5, 87, map[string]ratioBand{
		"ab_xa": {0.85, 0.92},
		"ad_xa": {1.55, 1.68},
	}},
	{"Cypher", 5, 83, map[string]ratioBand{
		"ab_xa": {0.38, 0.62},
		"ad_xa": {0.75, 0.82},
	}},
	{"Shark", 5, 79, map[string]ratioBand{
		"ab_xa": {0.4, 0.65},
		"ad_xa": {0.85, 1.15},
	}},
	{"NenStar", 5, 76, map[string]ratioBand{
		"ab_xa": {0.4, 0.65},
		"ad_xa": {1.15, 1.3},
	}},
	{"Anti Pattern", 5, 74, map[string]ratioBand{
		"ab_xa": {0.6, 0.8},
		"ad_xa": {0.6, 0.75},
	}},
	{"Perfect Gartley", 5, 90, map[string]ratioBand{
		"ab_xa": {0.60, 0.64},
		"bc_ab": {0.6, 0.8},
		"cd_bc": {1.2, 1.4},
		"ad_xa": {0.77, 0.80},
	}},
	{"ABCD", 4, 75, map[string]ratioBand{
		"cd_ab": {0.6, 1.3},
	}},
	{"Three Drives", 7, 78, nil},
}

// HarmonicDetector validates pivot geometry against Fibonacci ratio
// templates and merges overlapping hits into a single record
type HarmonicDetector struct {
	logger zerolog.Logger
}

func NewHarmonicDetector(logger zerolog.Logger) *HarmonicDetector {
	return &HarmonicDetector{
		logger: logger.With().Str("component", "HarmonicDetector").Logger(),
	}
}

// harmonicHit carries a validated structure before merging
type harmonicHit struct {
	template   harmonicTemplate
	pivots     []Pivot
	direction  Direction
	confidence int
}

func (h harmonicHit) startIndex() int { return h.pivots[0].Index }
func (h harmonicHit) endIndex() int   { return h.pivots[len(h.pivots)-1].Index }

// Detect finds every template's most recent valid structure, merges
// overlapping same-direction hits, and returns at most the strongest few
func (d *HarmonicDetector) Detect(series market.Series) []Record {
	if len(series) < harmonicMinBars {
		return nil
	}
	pivots := FindPivots(series, harmonicPivotSpan)
	if len(pivots) < 5 {
		return nil
	}

	var hits []harmonicHit
	for _, tpl := range harmonicTemplates {
		if hit, ok := d.latestMatch(tpl, pivots); ok {
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	merged := mergeOverlapping(hits)
	var records []Record
	for _, g := range merged {
		records = append(records, d.groupRecord(series, g))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Confidence > records[j].Confidence
	})
	if len(records) > harmonicKeepTop {
		records = records[:harmonicKeepTop]
	}
	return records
}

// latestMatch slides the template over consecutive pivot windows from the
// most recent backwards and stops at the first valid structure
func (d *HarmonicDetector) latestMatch(tpl harmonicTemplate, pivots []Pivot) (harmonicHit, bool) {
	for start := len(pivots) - tpl.points; start >= 0; start-- {
		window := pivots[start : start+tpl.points]
		if !alternating(window) {
			continue
		}
		if !d.ratiosHold(tpl, window) {
			continue
		}
		direction := Bearish
		if window[len(window)-1].Kind == PivotLow {
			direction = Bullish
		}
		return harmonicHit{
			template:   tpl,
			pivots:     window,
			direction:  direction,
			confidence: tpl.confidence,
		}, true
	}
	return harmonicHit{}, false
}

func alternating(pivots []Pivot) bool {
	for i := 1; i < len(pivots); i++ {
		if pivots[i].Kind == pivots[i-1].Kind {
			return false
		}
	}
	return true
}

func legLength(a, b Pivot) float64 { return math.Abs(b.Price - a.Price) }

// ratio rejects zero denominators by returning NaN, which no band contains
func ratio(numer, denom float64) float64 {
	if denom == 0 {
		return math.NaN()
	}
	return numer / denom
}

func (d *HarmonicDetector) ratiosHold(tpl harmonicTemplate, w []Pivot) bool {
	switch tpl.points {
	case 5:
		xa := legLength(w[0], w[1])
		ab := legLength(w[1], w[2])
		bc := legLength(w[2], w[3])
		cd := legLength(w[3], w[4])
		ad := legLength(w[1], w[4])
		ratios := map[string]float64{
			"ab_xa": ratio(ab, xa),
			"bc_ab": ratio(bc, ab),
			"cd_bc": ratio(cd, bc),
			"ad_xa": ratio(ad, xa),
		}
		for key, band := range tpl.bands {
			r := ratios[key]
			if math.IsNaN(r) || !band.contains(r) {
				return false
			}
		}
		return true
	case 4:
		ab := legLength(w[0], w[1])
		cd := legLength(w[2], w[3])
		r := ratio(cd, ab)
		band := tpl.bands["cd_ab"]
		return !math.IsNaN(r) && band.contains(r)
	case 7:
		return threeDrivesHold(w)
	default:
		return false
	}
}

// threeDrivesHold checks three successive drives with consistent
// retracements and extensions
func threeDrivesHold(w []Pivot) bool {
	drive1 := legLength(w[0], w[1])
	retr1 := legLength(w[1], w[2])
	drive2 := legLength(w[2], w[3])
	retr2 := legLength(w[3], w[4])
	drive3 := legLength(w[4], w[5])

	retrBand := ratioBand{0.5, 0.9}
	extBand := ratioBand{1.0, 1.6}

	r1 := ratio(retr1, drive1)
	r2 := ratio(retr2, drive2)
	e1 := ratio(drive2, drive1)
	e2 := ratio(drive3, drive2)
	for _, r := range []float64{r1, r2, e1, e2} {
		if math.IsNaN(r) {
			return false
		}
	}
	return retrBand.contains(r1) && retrBand.contains(r2) &&
		extBand.contains(e1) && extBand.contains(e2)
}

// hitGroup is a set of mutually overlapping hits; primary is the index of
// the highest-confidence member
type hitGroup struct {
	members []harmonicHit
	primary int
}

// mergeOverlapping groups hits whose intervals overlap by more than half of
// either hit's duration, same direction only. Grouping is transitive.
func mergeOverlapping(hits []harmonicHit) []hitGroup {
	parent := make([]int, len(hits))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[i].direction != hits[j].direction {
				continue
			}
			if intervalsOverlap(hits[i], hits[j]) {
				union(i, j)
			}
		}
	}

	byRoot := map[int]*hitGroup{}
	var order []int
	for i, h := range hits {
		root := find(i)
		g, ok := byRoot[root]
		if !ok {
			g = &hitGroup{}
			byRoot[root] = g
			order = append(order, root)
		}
		g.members = append(g.members, h)
	}

	groups := make([]hitGroup, 0, len(order))
	for _, root := range order {
		g := byRoot[root]
		for i, m := range g.members {
			if m.confidence > g.members[g.primary].confidence {
				g.primary = i
			}
		}
		groups = append(groups, *g)
	}
	return groups
}

// intervalsOverlap reports whether the shared bar span exceeds half of
// either hit's duration
func intervalsOverlap(a, b harmonicHit) bool {
	start := max(a.startIndex(), b.startIndex())
	end := min(a.endIndex(), b.endIndex())
	overlap := float64(end - start)
	if overlap <= 0 {
		return false
	}
	durA := float64(a.endIndex() - a.startIndex())
	durB := float64(b.endIndex() - b.startIndex())
	return overlap > durA*overlapMergeThreshold || overlap > durB*overlapMergeThreshold
}

// groupRecord renders one merged group as a record. The primary structure
// supplies the geometry; confirming members boost confidence and extend
// the name and description.
func (d *HarmonicDetector) groupRecord(series market.Series, g hitGroup) Record {
	primary := g.members[g.primary]
	name := primary.template.name
	confidence := primary.confidence
	desc := fmt.Sprintf("%s harmonic structure validated by Fibonacci leg ratios", name)

	if extra := len(g.members) - 1; extra > 0 {
		var others []string
		for i, m := range g.members {
			if i != g.primary {
				others = append(others, m.template.name)
			}
		}
		name = fmt.Sprintf("%s +%d others", name, extra)
		desc = fmt.Sprintf("%s, confirmed by %s", desc, strings.Join(others, ", "))
		confidence += min(mergeBoostCap, mergeBoostPerPattern*extra)
	}

	return NewRecord(name, CategoryHarmonic, confidence, primary.direction, desc,
		harmonicCoords(primary))
}

var harmonicLabels = []string{"X", "A", "B", "C", "D", "E", "F"}

func harmonicCoords(hit harmonicHit) Coordinates {
	points := make([]HarmonicPoint, len(hit.pivots))
	labels := harmonicLabels
	if len(hit.pivots) == 4 {
		labels = []string{"A", "B", "C", "D"}
	}
	for i, p := range hit.pivots {
		points[i] = HarmonicPoint{
			Label:     labels[i],
			Index:     p.Index,
			Price:     p.Price,
			Timestamp: p.Timestamp,
		}
	}

	first := hit.pivots[0]
	last := hit.pivots[len(hit.pivots)-1]
	span := last.Price - first.Price
	fibs := make([]FibLevel, len(fibLadder))
	for i, r := range fibLadder {
		fibs[i] = FibLevel{
			Ratio: r,
			Price: first.Price + span*r,
			Label: fmt.Sprintf("%.1f%%", r*100),
		}
	}

	return HarmonicPattern{
		Type:            "harmonic_pattern",
		PatternType:     hit.template.name,
		Points:          points,
		StartTime:       first.Timestamp,
		EndTime:         last.Timestamp,
		HighlightColor:  directionColor(hit.direction),
		FibonacciLevels: fibs,
	}
}
