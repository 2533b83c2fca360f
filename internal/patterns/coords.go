package patterns

import "time"

// Coordinates is the renderer-facing description of where a pattern sits on
// a chart. It is a closed union: exactly the five variants below implement
// it, and renderers dispatch with a type switch instead of comparing type
// strings. Each variant serializes with a fixed "type" tag.
type Coordinates interface {
	CoordType() string
}

// PatternRange highlights a span of candles
type PatternRange struct {
	Type           string    `json:"type"`
	StartIndex     int       `json:"start_index"`
	EndIndex       int       `json:"end_index"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	PatternHigh    float64   `json:"pattern_high"`
	PatternLow     float64   `json:"pattern_low"`
	HighlightColor string    `json:"highlight_color"`
	PatternName    string    `json:"pattern_name"`
}

func (c PatternRange) CoordType() string { return "pattern_range" }

// VolumePattern marks a single volume event
type VolumePattern struct {
	Type           string    `json:"type"`
	Index          int       `json:"index"`
	Timestamp      time.Time `json:"timestamp"`
	Volume         float64   `json:"volume"`
	VolumeMA20     float64   `json:"volume_ma_20,omitempty"`
	Price          float64   `json:"price,omitempty"`
	HighlightColor string    `json:"highlight_color,omitempty"`
}

func (c VolumePattern) CoordType() string { return "volume_pattern" }

// StatisticalPattern marks an indicator event at one bar
type StatisticalPattern struct {
	Type           string    `json:"type"`
	Index          int       `json:"index"`
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	PatternType    string    `json:"pattern_type,omitempty"`
	HighlightColor string    `json:"highlight_color,omitempty"`
}

func (c StatisticalPattern) CoordType() string { return "statistical_pattern" }

// HorizontalLine marks a price level over a time span (support, resistance,
// breakout levels)
type HorizontalLine struct {
	Type           string    `json:"type"`
	Level          float64   `json:"level"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	HighlightColor string    `json:"highlight_color,omitempty"`
}

func (c HorizontalLine) CoordType() string { return "horizontal_line" }

// HarmonicPoint is one labeled anchor of a harmonic structure
type HarmonicPoint struct {
	Label     string    `json:"label"`
	Index     int       `json:"index"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// FibLevel is one rung of the retracement ladder drawn with a harmonic hit
type FibLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
	Label string  `json:"label"`
}

// HarmonicPattern carries every anchor point of a validated structure plus
// the Fibonacci ladder between its first and last anchors
type HarmonicPattern struct {
	Type            string          `json:"type"`
	PatternType     string          `json:"pattern_type"`
	Points          []HarmonicPoint `json:"points"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	HighlightColor  string          `json:"highlight_color,omitempty"`
	FibonacciLevels []FibLevel      `json:"fibonacci_levels"`
}

func (c HarmonicPattern) CoordType() string { return "harmonic_pattern" }
