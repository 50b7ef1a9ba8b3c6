package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/calculator-api/internal/model"
)

func TestStatsCache_WithoutRedisLoadsEveryTime(t *testing.T) {
	cache := NewStatsCache(nil, 0, nil)

	var calls int32
	load := func(ctx context.Context, owner string) (*model.CalculationStats, error) {
		atomic.AddInt32(&calls, 1)
		return &model.CalculationStats{Total: 2, Operations: map[string]int64{"add": 2}}, nil
	}

	for i := 0; i < 3; i++ {
		stats, err := cache.Get(context.Background(), "user-1", load)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.Total)
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	// No client: invalidation is a no-op, not a panic.
	cache.Invalidate(context.Background(), "user-1")
}

func TestStatsCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	cache := NewStatsCache(nil, time.Minute, nil)

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context, owner string) (*model.CalculationStats, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &model.CalculationStats{Total: 1, Operations: map[string]int64{"divide": 1}}, nil
	}

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			stats, err := cache.Get(context.Background(), "user-2", load)
			assert.NoError(t, err)
			assert.EqualValues(t, 1, stats.Total)
		}()
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(callers))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestStatsCache_LoaderErrorPropagates(t *testing.T) {
	cache := NewStatsCache(nil, 0, nil)
	boom := errors.New("db down")

	_, err := cache.Get(context.Background(), "user-3", func(context.Context, string) (*model.CalculationStats, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "calcapi:stats:anonymous", statsKey(model.AnonymousOwner))
}
