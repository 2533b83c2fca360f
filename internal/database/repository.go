package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound marks lookups that matched no rows
var ErrNotFound = errors.New("not found")

// Repository provides data access methods
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck verifies database connectivity
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ---- trading pairs ----

func (r *Repository) UpsertTradingPair(ctx context.Context, pair *TradingPair) error {
	query := `
		INSERT INTO trading_pairs (coin_id, symbol, base_currency, quote_currency, name,
			market_cap, market_cap_rank, current_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (coin_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			market_cap = EXCLUDED.market_cap,
			market_cap_rank = EXCLUDED.market_cap_rank,
			current_price = EXCLUDED.current_price,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	return r.db.Pool.QueryRow(ctx, query,
		pair.CoinID, pair.Symbol, pair.BaseCurrency, pair.QuoteCurrency, pair.Name,
		pair.MarketCap, pair.MarketCapRank, pair.CurrentPrice, pair.Status,
	).Scan(&pair.ID, &pair.CreatedAt, &pair.UpdatedAt)
}

func (r *Repository) GetTradingPairByCoinID(ctx context.Context, coinID string) (*TradingPair, error) {
	query := `
		SELECT id, coin_id, symbol, base_currency, quote_currency, name,
			market_cap, market_cap_rank, current_price, status, created_at, updated_at
		FROM trading_pairs WHERE coin_id = $1`

	var p TradingPair
	err := r.db.Pool.QueryRow(ctx, query, coinID).Scan(
		&p.ID, &p.CoinID, &p.Symbol, &p.BaseCurrency, &p.QuoteCurrency, &p.Name,
		&p.MarketCap, &p.MarketCapRank, &p.CurrentPrice, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying trading pair: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListTradingPairs(ctx context.Context, limit int) ([]*TradingPair, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, coin_id, symbol, base_currency, quote_currency, name,
			market_cap, market_cap_rank, current_price, status, created_at, updated_at
		FROM trading_pairs
		WHERE status = 'active'
		ORDER BY market_cap_rank NULLS LAST
		LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trading pairs: %w", err)
	}
	defer rows.Close()

	var pairs []*TradingPair
	for rows.Next() {
		var p TradingPair
		if err := rows.Scan(
			&p.ID, &p.CoinID, &p.Symbol, &p.BaseCurrency, &p.QuoteCurrency, &p.Name,
			&p.MarketCap, &p.MarketCapRank, &p.CurrentPrice, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		pairs = append(pairs, &p)
	}
	return pairs, rows.Err()
}

// ---- ohlcv ----

// SaveOHLCV stores candles, skipping duplicates on the unique constraint
func (r *Repository) SaveOHLCV(ctx context.Context, rowsIn []OHLCVRow) error {
	query := `
		INSERT INTO ohlcv_data (trading_pair_id, timestamp, timeframe, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (trading_pair_id, timestamp, timeframe) DO NOTHING`

	for _, row := range rowsIn {
		if _, err := r.db.Pool.Exec(ctx, query,
			row.TradingPairID, row.Timestamp, row.Timeframe,
			row.Open, row.High, row.Low, row.Close, row.Volume,
		); err != nil {
			return fmt.Errorf("saving ohlcv row: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetOHLCV(ctx context.Context, pairID int64, timeframe string, limit int) ([]OHLCVRow, error) {
	if limit <= 0 {
		limit = 365
	}
	query := `
		SELECT id, trading_pair_id, timestamp, timeframe, open, high, low, close, volume
		FROM (
			SELECT id, trading_pair_id, timestamp, timeframe, open, high, low, close, volume
			FROM ohlcv_data
			WHERE trading_pair_id = $1 AND timeframe = $2
			ORDER BY timestamp DESC
			LIMIT $3
		) recent
		ORDER BY timestamp ASC`

	rows, err := r.db.Pool.Query(ctx, query, pairID, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ohlcv: %w", err)
	}
	defer rows.Close()

	var out []OHLCVRow
	for rows.Next() {
		var o OHLCVRow
		if err := rows.Scan(&o.ID, &o.TradingPairID, &o.Timestamp, &o.Timeframe,
			&o.Open, &o.High, &o.Low, &o.Close, &o.Volume); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ---- pattern types ----

func (r *Repository) GetPatternTypeByName(ctx context.Context, name string) (*PatternType, error) {
	query := `
		SELECT id, name, category, pattern_type, typical_duration, description,
			reliability_score, is_reversal, is_continuation
		FROM pattern_types WHERE name = $1`

	var pt PatternType
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(
		&pt.ID, &pt.Name, &pt.Category, &pt.PatternType, &pt.TypicalDuration,
		&pt.Description, &pt.ReliabilityScore, &pt.IsReversal, &pt.IsContinuation,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying pattern type: %w", err)
	}
	return &pt, nil
}

func (r *Repository) ListPatternTypes(ctx context.Context) ([]*PatternType, error) {
	query := `
		SELECT id, name, category, pattern_type, typical_duration, description,
			reliability_score, is_reversal, is_continuation
		FROM pattern_types ORDER BY category, name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pattern types: %w", err)
	}
	defer rows.Close()

	var types []*PatternType
	for rows.Next() {
		var pt PatternType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Category, &pt.PatternType,
			&pt.TypicalDuration, &pt.Description, &pt.ReliabilityScore,
			&pt.IsReversal, &pt.IsContinuation); err != nil {
			return nil, err
		}
		types = append(types, &pt)
	}
	return types, rows.Err()
}

// ---- detected patterns ----

func (r *Repository) SaveDetectedPattern(ctx context.Context, dp *DetectedPattern) error {
	query := `
		INSERT INTO detected_patterns (trading_pair_id, pattern_type_id, confidence,
			direction, start_time, end_time, timeframe, coordinates, pattern_high, pattern_low)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return r.db.Pool.QueryRow(ctx, query,
		dp.TradingPairID, dp.PatternTypeID, dp.Confidence, dp.Direction,
		dp.StartTime, dp.EndTime, dp.Timeframe, dp.Coordinates,
		dp.PatternHigh, dp.PatternLow,
	).Scan(&dp.ID, &dp.CreatedAt)
}

// DeleteDetectedPatternsBefore removes detections older than the cutoff and
// reports how many rows went away
func (r *Repository) DeleteDetectedPatternsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM detected_patterns WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old detected patterns: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) GetRecentDetectedPatterns(ctx context.Context, pairID int64, limit int) ([]*DetectedPattern, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, trading_pair_id, pattern_type_id, confidence, direction,
			start_time, end_time, timeframe, coordinates, pattern_high, pattern_low, created_at
		FROM detected_patterns
		WHERE trading_pair_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, query, pairID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying detected patterns: %w", err)
	}
	defer rows.Close()

	var out []*DetectedPattern
	for rows.Next() {
		var dp DetectedPattern
		if err := rows.Scan(&dp.ID, &dp.TradingPairID, &dp.PatternTypeID, &dp.Confidence,
			&dp.Direction, &dp.StartTime, &dp.EndTime, &dp.Timeframe, &dp.Coordinates,
			&dp.PatternHigh, &dp.PatternLow, &dp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &dp)
	}
	return out, rows.Err()
}
