package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisLimiter(client, log), mr
}

func TestRedisLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)
	cfg := Config{MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		res, err := limiter.Check(context.Background(), "user-1", cfg)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-(i+1), res.Remaining)
	}

	res, err := limiter.Check(context.Background(), "user-1", cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestRedisLimiter_SetsKeyTTL(t *testing.T) {
	limiter, mr := setupRedisLimiter(t)
	cfg := Config{MaxRequests: 5, Window: time.Minute}

	_, err := limiter.Check(context.Background(), "user-1", cfg)
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestRedisLimiter_WindowRollover(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)
	cfg := Config{MaxRequests: 1, Window: 50 * time.Millisecond}

	res, err := limiter.Check(context.Background(), "user-1", cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Check(context.Background(), "user-1", cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(cfg.Window + 10*time.Millisecond)

	res, err = limiter.Check(context.Background(), "user-1", cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_FailOpenWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewRedisLimiter(client, log)

	res, err := limiter.Check(context.Background(), "user-1", Config{MaxRequests: 3, Window: time.Minute})
	require.Error(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
}
