package patterns

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"pattern-hero/internal/indicators"
	"pattern-hero/internal/market"
)

// maxResults caps the aggregate output at the strongest patterns
const maxResults = 50

// Detector is the common surface every pattern family implements
type Detector interface {
	Detect(series market.Series) []Record
}

type namedDetector struct {
	name     string
	detector Detector
}

// Stats summarizes one aggregation run
type Stats struct {
	Total             int            `json:"total_patterns"`
	ByCategory        map[string]int `json:"by_category"`
	ByDirection       map[string]int `json:"by_direction"`
	ByConfidenceLevel map[string]int `json:"by_confidence_level"`
	AverageConfidence float64        `json:"average_confidence"`
	HighestConfidence int            `json:"highest_confidence"`
	PatternTypes      int            `json:"pattern_types"`
}

// Result is the full output of one run over a series. Patterns holds only
// the strongest hits; TotalDetected and Stats cover everything found.
type Result struct {
	Patterns      []Record `json:"patterns"`
	TotalDetected int      `json:"total_patterns_detected"`
	Stats         Stats    `json:"statistics"`
	Strongest     *Record  `json:"strongest_pattern,omitempty"`
}

// Aggregator fans a series out to every registered detector concurrently.
// A panicking or empty detector never affects the others.
type Aggregator struct {
	detectors []namedDetector
	logger    zerolog.Logger
}

// NewAggregator builds an aggregator with the full default detector set
func NewAggregator(logger zerolog.Logger) *Aggregator {
	a := &Aggregator{
		logger: logger.With().Str("component", "Aggregator").Logger(),
	}
	a.Register("candlestick", NewCandlestickDetector(nil, logger))
	a.Register("chart", NewChartDetector(logger))
	a.Register("volume", NewVolumeDetector(logger))
	a.Register("harmonic", NewHarmonicDetector(logger))
	a.Register("statistical", NewStatisticalDetector(
		indicators.NewFormulaEngine(), DefaultRuleConfig(), logger))
	return a
}

// NewEmptyAggregator builds an aggregator with no detectors, for callers
// that register their own set
func NewEmptyAggregator(logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		logger: logger.With().Str("component", "Aggregator").Logger(),
	}
}

func (a *Aggregator) Register(name string, d Detector) {
	a.detectors = append(a.detectors, namedDetector{name: name, detector: d})
}

// Analyze runs every detector, concatenates the hits, sorts them by
// confidence descending (stable), and keeps the strongest maxResults
func (a *Aggregator) Analyze(series market.Series) Result {
	type detectorOutput struct {
		order   int
		records []Record
	}

	outputs := make([]detectorOutput, len(a.detectors))
	var wg sync.WaitGroup
	for idx, nd := range a.detectors {
		wg.Add(1)
		go func(idx int, nd namedDetector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error().
						Str("detector", nd.name).
						Interface("panic", r).
						Msg("detector panicked, skipping its results")
				}
			}()
			outputs[idx] = detectorOutput{
				order:   idx,
				records: nd.detector.Detect(series),
			}
		}(idx, nd)
	}
	wg.Wait()

	var all []Record
	for _, out := range outputs {
		all = append(all, out.records...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})

	// stats summarize every detection, not just the kept slice
	stats := ComputeStats(all)
	top := all
	if len(top) > maxResults {
		top = top[:maxResults]
	}

	result := Result{
		Patterns:      top,
		TotalDetected: len(all),
		Stats:         stats,
	}
	if len(top) > 0 {
		strongest := top[0]
		result.Strongest = &strongest
	}

	a.logger.Debug().
		Int("bars", len(series)).
		Int("detected", len(all)).
		Int("kept", len(top)).
		Msg("analysis complete")
	return result
}

// ComputeStats summarizes a record set
func ComputeStats(records []Record) Stats {
	stats := Stats{
		Total:             len(records),
		ByCategory:        map[string]int{},
		ByDirection:       map[string]int{},
		ByConfidenceLevel: map[string]int{},
	}

	names := map[string]struct{}{}
	sum := 0
	for _, r := range records {
		stats.ByCategory[string(r.Category)]++
		stats.ByDirection[string(r.Direction)]++
		switch {
		case r.Confidence >= 80:
			stats.ByConfidenceLevel["high"]++
		case r.Confidence >= 60:
			stats.ByConfidenceLevel["medium"]++
		default:
			stats.ByConfidenceLevel["low"]++
		}
		if r.Confidence > stats.HighestConfidence {
			stats.HighestConfidence = r.Confidence
		}
		sum += r.Confidence
		names[r.Name] = struct{}{}
	}
	if len(records) > 0 {
		stats.AverageConfidence = float64(sum) / float64(len(records))
	}
	stats.PatternTypes = len(names)
	return stats
}
