package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"pattern-hero/internal/database"
)

// PatternTypeCache is a read-through cache over the pattern type catalog.
// Lookups try Redis first, then the database, and an in-process map keeps
// serving when both are down.
type PatternTypeCache struct {
	redis  *Service // nil when Redis is disabled
	repo   *database.Repository
	logger zerolog.Logger

	mu    sync.RWMutex
	local map[string]*database.PatternType
}

func NewPatternTypeCache(redis *Service, repo *database.Repository, logger zerolog.Logger) *PatternTypeCache {
	return &PatternTypeCache{
		redis:  redis,
		repo:   repo,
		logger: logger.With().Str("component", "PatternTypeCache").Logger(),
		local:  map[string]*database.PatternType{},
	}
}

// Get resolves a pattern type by name
func (c *PatternTypeCache) Get(ctx context.Context, name string) (*database.PatternType, error) {
	key := fmt.Sprintf(KeyPatternType, name)

	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, key); err == nil {
			var pt database.PatternType
			if err := json.Unmarshal([]byte(raw), &pt); err == nil {
				return &pt, nil
			}
		}
	}

	c.mu.RLock()
	cached, ok := c.local[name]
	c.mu.RUnlock()

	if c.repo == nil {
		if ok {
			return cached, nil
		}
		return nil, database.ErrNotFound
	}

	pt, err := c.repo.GetPatternTypeByName(ctx, name)
	if err != nil {
		// stale local copy beats a hard failure
		if ok {
			return cached, nil
		}
		return nil, err
	}

	c.store(ctx, key, pt)
	return pt, nil
}

// Warm loads the whole catalog into the local map and Redis
func (c *PatternTypeCache) Warm(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	types, err := c.repo.ListPatternTypes(ctx)
	if err != nil {
		return fmt.Errorf("warming pattern type cache: %w", err)
	}

	c.mu.Lock()
	for _, pt := range types {
		c.local[pt.Name] = pt
	}
	c.mu.Unlock()

	if c.redis != nil {
		for _, pt := range types {
			key := fmt.Sprintf(KeyPatternType, pt.Name)
			if err := c.redis.Set(ctx, key, pt, PatternTypeTTL); err != nil {
				c.logger.Debug().Err(err).Msg("skipping Redis warm, degraded")
				break
			}
		}
	}

	c.logger.Info().Int("count", len(types)).Msg("pattern type cache warmed")
	return nil
}

func (c *PatternTypeCache) store(ctx context.Context, key string, pt *database.PatternType) {
	c.mu.Lock()
	c.local[pt.Name] = pt
	c.mu.Unlock()

	if c.redis != nil {
		_ = c.redis.Set(ctx, key, pt, PatternTypeTTL)
	}
}
