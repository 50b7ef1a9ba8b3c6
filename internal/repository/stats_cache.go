package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/deppfellow/calculator-api/internal/model"
)

const (
	statsKeyPrefix = "calcapi:stats:"

	// DefaultStatsTTL bounds staleness if an invalidation is ever lost.
	DefaultStatsTTL = 5 * time.Minute
)

// StatsLoader computes fresh stats on a cache miss.
type StatsLoader func(ctx context.Context, owner string) (*model.CalculationStats, error)

// StatsCache is a cache-aside layer over per-owner stats.
//
// Concurrent misses for the same owner share one load. Redis failures are
// logged and fall through to the loader, the cache never fails a request.
// A nil client disables caching but keeps the load deduplication.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    *zerolog.Logger
}

// NewStatsCache builds the cache. client may be nil.
func NewStatsCache(client *redis.Client, ttl time.Duration, log *zerolog.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &StatsCache{client: client, ttl: ttl, log: log}
}

func statsKey(owner string) string {
	return statsKeyPrefix + owner
}

// Get returns cached stats for owner or loads them.
func (c *StatsCache) Get(ctx context.Context, owner string, load StatsLoader) (*model.CalculationStats, error) {
	if stats, ok := c.lookup(ctx, owner); ok {
		return stats, nil
	}

	v, err, _ := c.group.Do(owner, func() (interface{}, error) {
		stats, err := load(ctx, owner)
		if err != nil {
			return nil, err
		}
		c.store(ctx, owner, stats)
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CalculationStats), nil
}

// Invalidate drops the cached entry for owner.
func (c *StatsCache) Invalidate(ctx context.Context, owner string) {
	c.group.Forget(owner)
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsKey(owner)).Err(); err != nil {
		c.log.Warn().Err(err).Str("owner", owner).Msg("failed to invalidate stats cache")
	}
}

func (c *StatsCache) lookup(ctx context.Context, owner string) (*model.CalculationStats, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, statsKey(owner)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("owner", owner).Msg("stats cache read failed")
		}
		return nil, false
	}

	var stats model.CalculationStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn().Err(err).Str("owner", owner).Msg("stats cache entry unreadable")
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) store(ctx context.Context, owner string, stats *model.CalculationStats) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey(owner), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("owner", owner).Msg("stats cache write failed")
	}
}
