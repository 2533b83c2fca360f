package patterns

// Category classifies which detector family produced a pattern
type Category string

const (
	CategoryCandle      Category = "Candle"
	CategoryChart       Category = "Chart"
	CategoryPriceAction Category = "Price Action"
	CategoryVolume      Category = "Volume"
	CategoryHarmonic    Category = "Harmonic"
	CategoryStatistical Category = "Statistical"
)

// Direction is the expected price implication of a pattern
type Direction string

const (
	Bullish      Direction = "bullish"
	Bearish      Direction = "bearish"
	Neutral      Direction = "neutral"
	Continuation Direction = "continuation"
)

// Confidence bounds. Scores are heuristic strengths, not probabilities.
const (
	MinConfidence = 10
	MaxConfidence = 100
)

// Record is a single detected pattern, the engine's unit of output
type Record struct {
	Name        string      `json:"name"`
	Category    Category    `json:"category"`
	Confidence  int         `json:"confidence"`
	Direction   Direction   `json:"direction"`
	Description string      `json:"description"`
	Coordinates Coordinates `json:"coordinates,omitempty"`
}

// NewRecord is the only way detectors construct records. It clamps
// confidence into [MinConfidence, MaxConfidence] and normalizes unknown
// directions to neutral so every emitted record satisfies the output
// invariants regardless of which heuristic produced it.
func NewRecord(name string, category Category, confidence int, direction Direction, description string, coords Coordinates) Record {
	if confidence < MinConfidence {
		confidence = MinConfidence
	}
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}
	switch direction {
	case Bullish, Bearish, Neutral, Continuation:
	default:
		direction = Neutral
	}
	return Record{
		Name:        name,
		Category:    category,
		Confidence:  confidence,
		Direction:   direction,
		Description: description,
		Coordinates: coords,
	}
}

// directionColor maps a direction to its chart highlight color
func directionColor(d Direction) string {
	switch d {
	case Bullish:
		return "#10B981"
	case Bearish:
		return "#EF4444"
	case Continuation:
		return "#3B82F6"
	default:
		return "#F59E0B"
	}
}
