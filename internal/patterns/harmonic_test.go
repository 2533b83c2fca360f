package patterns

import (
	"strings"
	"testing"
	"time"

	"pattern-hero/internal/market"
)

func pivotAt(index int, price float64, kind PivotKind) Pivot {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return Pivot{
		Index:     index,
		Price:     price,
		Kind:      kind,
		Timestamp: base.AddDate(0, 0, index),
	}
}

// gartleyPivots is a structure satisfying every Gartley band:
// AB/XA=0.60, BC/AB=0.50, CD/BC=1.60, AD/XA=0.78
func gartleyPivots() []Pivot {
	return []Pivot{
		pivotAt(0, 100, PivotLow),   // X
		pivotAt(10, 150, PivotHigh), // A
		pivotAt(20, 120, PivotLow),  // B
		pivotAt(30, 135, PivotHigh), // C
		pivotAt(40, 111, PivotLow),  // D
	}
}

func gartleyTemplate(t *testing.T) harmonicTemplate {
	t.Helper()
	for _, tpl := range harmonicTemplates {
		if tpl.name == "Gartley" {
			return tpl
		}
	}
	t.Fatal("gartley template missing")
	return harmonicTemplate{}
}

func TestGartleyRatiosHold(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	if !d.ratiosHold(gartleyTemplate(t), gartleyPivots()) {
		t.Error("valid gartley structure rejected")
	}
}

func TestGartleyRejectsShallowRetracement(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	pivots := gartleyPivots()
	pivots[2].Price = 135 // AB/XA = 0.30, below the band
	if d.ratiosHold(gartleyTemplate(t), pivots) {
		t.Error("shallow AB retracement accepted")
	}
}

func TestGartleyRejectsZeroLeg(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	pivots := gartleyPivots()
	pivots[1].Price = 100 // XA = 0, every XA ratio is undefined
	if d.ratiosHold(gartleyTemplate(t), pivots) {
		t.Error("zero-length XA leg accepted")
	}
}

func TestLatestMatchDirectionFollowsTerminalPivot(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	hit, ok := d.latestMatch(gartleyTemplate(t), gartleyPivots())
	if !ok {
		t.Fatal("gartley not matched")
	}
	if hit.direction != Bullish {
		t.Errorf("direction %s, want bullish for a terminal low", hit.direction)
	}
}

func TestLatestMatchRequiresAlternation(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	pivots := gartleyPivots()
	pivots[2].Kind = PivotHigh // two highs in a row
	if _, ok := d.latestMatch(gartleyTemplate(t), pivots); ok {
		t.Error("non-alternating pivots matched")
	}
}

func templateByName(t *testing.T, name string) harmonicTemplate {
	t.Helper()
	for _, tpl := range harmonicTemplates {
		if tpl.name == name {
			return tpl
		}
	}
	t.Fatalf("template %q missing", name)
	return harmonicTemplate{}
}

func hitSpanning(t *testing.T, name string, confidence, start, end int, dir Direction) harmonicHit {
	t.Helper()
	mid := (start + end) / 2
	return harmonicHit{
		template:   templateByName(t, name),
		confidence: confidence,
		direction:  dir,
		pivots: []Pivot{
			pivotAt(start, 100, PivotLow),
			pivotAt(mid, 120, PivotHigh),
			pivotAt(end, 105, PivotLow),
		},
	}
}

func TestMergeOverlappingGroupsTransitively(t *testing.T) {
	hits := []harmonicHit{
		hitSpanning(t, "Bat", 70, 0, 20, Bullish),
		hitSpanning(t, "Cypher", 75, 5, 25, Bullish),
		hitSpanning(t, "Crab", 90, 10, 30, Bullish),
	}
	groups := mergeOverlapping(hits)
	if len(groups) != 1 {
		t.Fatalf("expected one transitive group, got %d", len(groups))
	}
	if got := groups[0].members[groups[0].primary].template.name; got != "Crab" {
		t.Errorf("primary %q, want the highest confidence member Crab", got)
	}
}

func TestMergeKeepsDirectionsApart(t *testing.T) {
	hits := []harmonicHit{
		hitSpanning(t, "Bat", 70, 0, 20, Bullish),
		hitSpanning(t, "Cypher", 75, 5, 25, Bearish),
	}
	groups := mergeOverlapping(hits)
	if len(groups) != 2 {
		t.Errorf("opposite directions merged: %d groups", len(groups))
	}
}

func TestMergeLeavesDisjointHitsAlone(t *testing.T) {
	hits := []harmonicHit{
		hitSpanning(t, "Bat", 70, 0, 10, Bullish),
		hitSpanning(t, "Cypher", 75, 50, 60, Bullish),
	}
	groups := mergeOverlapping(hits)
	if len(groups) != 2 {
		t.Errorf("disjoint hits merged: %d groups", len(groups))
	}
}

func TestGroupRecordBoostsAndRenames(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	hits := []harmonicHit{
		hitSpanning(t, "Bat", 70, 0, 20, Bullish),
		hitSpanning(t, "Cypher", 75, 5, 25, Bullish),
		hitSpanning(t, "Crab", 90, 10, 30, Bullish),
	}
	groups := mergeOverlapping(hits)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}

	rec := d.groupRecord(market.Series{}, groups[0])
	if rec.Confidence != 96 {
		t.Errorf("merged confidence %d, want 90 + 3 per confirmation = 96", rec.Confidence)
	}
	if rec.Name != "Crab +2 others" {
		t.Errorf("merged name %q, want \"Crab +2 others\"", rec.Name)
	}
	if !strings.Contains(rec.Description, "confirmed by") {
		t.Errorf("description %q lacks the confirmation note", rec.Description)
	}
	if rec.Direction != Bullish {
		t.Errorf("merged direction %s, want bullish", rec.Direction)
	}

	coords, ok := rec.Coordinates.(HarmonicPattern)
	if !ok {
		t.Fatal("merged coordinates are not a harmonic pattern")
	}
	if coords.PatternType != "Crab" {
		t.Errorf("coordinates carry %q, want the primary structure Crab", coords.PatternType)
	}
	if len(coords.FibonacciLevels) != len(fibLadder) {
		t.Errorf("fib ladder has %d rungs, want %d", len(coords.FibonacciLevels), len(fibLadder))
	}
}

func TestDetectNeedsEnoughBars(t *testing.T) {
	d := NewHarmonicDetector(testLogger())
	var series market.Series
	for i := 0; i < harmonicMinBars-1; i++ {
		series = append(series, flatBar(i, 100))
	}
	if got := d.Detect(series); got != nil {
		t.Errorf("expected nil below the bar minimum, got %v", got)
	}
}
