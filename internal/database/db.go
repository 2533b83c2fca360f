package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"pattern-hero/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDB creates a new database connection pool from the configured URL
func NewDB(cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "Database").Logger()
	log.Info().Msg("connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("running database migrations")

	migrations := []string{
		// Tracked coins
		`CREATE TABLE IF NOT EXISTS trading_pairs (
			id SERIAL PRIMARY KEY,
			coin_id VARCHAR(100) NOT NULL UNIQUE,
			symbol VARCHAR(20) NOT NULL,
			base_currency VARCHAR(20) NOT NULL,
			quote_currency VARCHAR(20) NOT NULL,
			name VARCHAR(100) NOT NULL,
			market_cap DECIMAL(30, 2),
			market_cap_rank INTEGER,
			current_price DECIMAL(20, 8),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trading_pairs_symbol ON trading_pairs(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trading_pairs_status ON trading_pairs(status)`,

		// Candle history
		`CREATE TABLE IF NOT EXISTS ohlcv_data (
			id SERIAL PRIMARY KEY,
			trading_pair_id INTEGER NOT NULL REFERENCES trading_pairs(id) ON DELETE CASCADE,
			timestamp TIMESTAMP NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			open DECIMAL(20, 8) NOT NULL,
			high DECIMAL(20, 8) NOT NULL,
			low DECIMAL(20, 8) NOT NULL,
			close DECIMAL(20, 8) NOT NULL,
			volume DECIMAL(30, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (trading_pair_id, timestamp, timeframe)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ohlcv_pair_tf ON ohlcv_data(trading_pair_id, timeframe)`,
		`CREATE INDEX IF NOT EXISTS idx_ohlcv_timestamp ON ohlcv_data(timestamp)`,

		// Pattern catalog
		`CREATE TABLE IF NOT EXISTS pattern_types (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			category VARCHAR(50) NOT NULL,
			pattern_type VARCHAR(50) NOT NULL,
			typical_duration INTEGER NOT NULL DEFAULT 1,
			description TEXT,
			reliability_score INTEGER,
			is_reversal BOOLEAN NOT NULL DEFAULT FALSE,
			is_continuation BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pattern_types_category ON pattern_types(category)`,

		// Detection results
		`CREATE TABLE IF NOT EXISTS detected_patterns (
			id SERIAL PRIMARY KEY,
			trading_pair_id INTEGER NOT NULL REFERENCES trading_pairs(id) ON DELETE CASCADE,
			pattern_type_id INTEGER REFERENCES pattern_types(id) ON DELETE SET NULL,
			confidence INTEGER NOT NULL,
			direction VARCHAR(20) NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			coordinates JSONB,
			pattern_high DECIMAL(20, 8),
			pattern_low DECIMAL(20, 8),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detected_patterns_pair ON detected_patterns(trading_pair_id)`,
		`CREATE INDEX IF NOT EXISTS idx_detected_patterns_created ON detected_patterns(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.logger.Info().Int("count", len(migrations)).Msg("migrations complete")
	return nil
}
