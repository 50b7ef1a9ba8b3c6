package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	allowed := interpret([]int64{1, 99, 0}, now, 15*time.Minute, 100)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 99, allowed.Remaining)
	assert.Equal(t, now.Add(15*time.Minute), allowed.ResetAt)

	denied := interpret([]int64{0, 0, 1_700_000_060_000}, now, time.Minute, 100)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, time.UnixMilli(1_700_000_060_000), denied.ResetAt)
	assert.Equal(t, 100, denied.Limit)
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(nil, "", 100, 15*time.Minute)
	assert.Equal(t, DefaultKeyPrefix, l.keyPrefix)
	assert.Equal(t, 100, l.Limit())
	assert.Equal(t, 15*time.Minute, l.Window())
}

func TestAllow_RedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewLimiter(client, "test:", 1, time.Second)
	_, err := l.Allow(context.Background(), "1.2.3.4")
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
