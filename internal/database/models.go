package database

import "time"

// TradingPair is a tracked coin
type TradingPair struct {
	ID            int64     `json:"id"`
	CoinID        string    `json:"coin_id"`
	Symbol        string    `json:"symbol"`
	BaseCurrency  string    `json:"base_currency"`
	QuoteCurrency string    `json:"quote_currency"`
	Name          string    `json:"name"`
	MarketCap     *float64  `json:"market_cap,omitempty"`
	MarketCapRank *int      `json:"market_cap_rank,omitempty"`
	CurrentPrice  *float64  `json:"current_price,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OHLCVRow is one stored candle
type OHLCVRow struct {
	ID            int64     `json:"id"`
	TradingPairID int64     `json:"trading_pair_id"`
	Timestamp     time.Time `json:"timestamp"`
	Timeframe     string    `json:"timeframe"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
}

// PatternType is a catalog entry describing one known pattern
type PatternType struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	PatternType      string `json:"pattern_type"`
	TypicalDuration  int    `json:"typical_duration"`
	Description      string `json:"description"`
	ReliabilityScore *int   `json:"reliability_score,omitempty"`
	IsReversal       bool   `json:"is_reversal"`
	IsContinuation   bool   `json:"is_continuation"`
}

// DetectedPattern is one persisted detection result
type DetectedPattern struct {
	ID            int64     `json:"id"`
	TradingPairID int64     `json:"trading_pair_id"`
	PatternTypeID *int64    `json:"pattern_type_id,omitempty"`
	Confidence    int       `json:"confidence"`
	Direction     string    `json:"direction"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Timeframe     string    `json:"timeframe"`
	Coordinates   []byte    `json:"coordinates,omitempty"` // JSONB payload
	PatternHigh   *float64  `json:"pattern_high,omitempty"`
	PatternLow    *float64  `json:"pattern_low,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
