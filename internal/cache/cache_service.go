// Package cache provides Redis-backed caching with graceful degradation.
// When Redis is unavailable, callers fall back to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pattern-hero/config"
)

// ErrMiss marks a cache miss, distinct from an unavailable cache
var ErrMiss = errors.New("cache miss")

// Key layouts
const (
	KeyPatternType    = "pattern_type:%s" // by name
	KeyPatternCatalog = "pattern_types:all"
	KeyAnalysisResult = "analysis:%s:%s" // coin id, timeframe
)

// Default TTLs
const (
	PatternTypeTTL = 24 * time.Hour
	AnalysisTTL    = 5 * time.Minute
)

// Service wraps a Redis client with a failure-count circuit breaker.
// While the breaker is open every operation fails fast.
type Service struct {
	client       *redis.Client
	logger       zerolog.Logger
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// NewService connects to Redis. A failed initial connection returns the
// service in degraded mode rather than an error.
func NewService(cfg config.RedisConfig, logger zerolog.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	s := &Service{
		client:        client,
		logger:        logger.With().Str("component", "Cache").Logger(),
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("initial Redis connection failed, starting degraded")
		return s, nil
	}

	s.healthy = true
	s.lastCheck = time.Now()
	s.logger.Info().Str("address", cfg.Address).Msg("Redis connected")
	return s, nil
}

// IsHealthy reports whether Redis is currently usable
func (s *Service) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCount++
	if s.failureCount >= s.maxFailures {
		if s.healthy {
			s.logger.Warn().Int("failures", s.failureCount).Msg("circuit breaker open, Redis marked unhealthy")
		}
		s.healthy = false
	}
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.healthy {
		s.logger.Info().Msg("circuit breaker closed, Redis recovered")
	}
	s.healthy = true
	s.failureCount = 0
	s.lastCheck = time.Now()
}

// checkHealth probes Redis in the background once the check interval has
// elapsed while unhealthy
func (s *Service) checkHealth() {
	s.mu.RLock()
	shouldCheck := !s.healthy && time.Since(s.lastCheck) >= s.checkInterval
	s.mu.RUnlock()

	if !shouldCheck {
		return
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(pingCtx).Err(); err == nil {
			s.recordSuccess()
		}
	}()
}

// Get retrieves a raw value. ErrMiss means the key is absent.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	s.checkHealth()

	if !s.IsHealthy() {
		return "", fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	result, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		s.recordFailure()
		return "", fmt.Errorf("redis get failed: %w", err)
	}

	s.recordSuccess()
	return result, nil
}

// Set stores a value with a TTL, marshaling non-string values as JSON
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.checkHealth()

	if !s.IsHealthy() {
		return fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	var data string
	switch v := value.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		jsonData, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		data = string(jsonData)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.recordFailure()
		return fmt.Errorf("redis set failed: %w", err)
	}

	s.recordSuccess()
	return nil
}

// Delete removes keys
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	s.checkHealth()

	if !s.IsHealthy() {
		return fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.recordFailure()
		return fmt.Errorf("redis del failed: %w", err)
	}

	s.recordSuccess()
	return nil
}

// Close releases the Redis client
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
