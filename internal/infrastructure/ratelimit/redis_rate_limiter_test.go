package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/shared/config"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	cfg := RateLimitConfig{RequestsPerMinute: 5}
	key := "test-key-minute"

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, key, cfg)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, key, cfg)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_Allow_MultipleWindows(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	cfg := RateLimitConfig{
		RequestsPerMinute: 5,
		RequestsPerHour:   10,
		RequestsPerDay:    20,
	}
	key := "test-key-multi"

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, key, cfg)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, key, cfg)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied by minute limit")
}

func TestRedisRateLimiter_Allow_DifferentKeys(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	cfg := RateLimitConfig{RequestsPerMinute: 2}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "test-key-1", cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "test-key-1", cfg)
	require.NoError(t, err)
	assert.False(t, allowed, "key1 should be rate limited")

	allowed, err = limiter.Allow(ctx, "test-key-2", cfg)
	require.NoError(t, err)
	assert.True(t, allowed, "key2 should not be affected")
}

func TestRedisRateLimiter_GetRemaining(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	cfg := RateLimitConfig{RequestsPerMinute: 5}
	key := "test-key-remaining"

	remaining, err := limiter.GetRemaining(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, key, cfg)
		require.NoError(t, err)
	}

	remaining, err = limiter.GetRemaining(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), remaining)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	cfg := RateLimitConfig{RequestsPerMinute: 2}
	key := "test-key-reset"

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, key, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, key, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)

	err = limiter.Reset(ctx, key)
	require.NoError(t, err)

	allowed, err = limiter.Allow(ctx, key, cfg)
	require.NoError(t, err)
	assert.True(t, allowed, "should be allowed after reset")
}

func TestRedisRateLimiter_ZeroLimits(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "test-key-zero", RateLimitConfig{})
	require.NoError(t, err)
	assert.True(t, allowed, "zero limits should allow all requests")
}

func TestRecoveryStartGate_PerEmail(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	gate := NewRecoveryStartGate(NewRedisRateLimiter(client), config.RecoveryConfig{
		StartsPerEmailPerDay: 3,
		StartsPerIPPerHour:   10,
	})

	for i := 0; i < 3; i++ {
		allowed, err := gate.AllowStart(ctx, "Ada@example.com", "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, allowed, "start %d should be allowed", i+1)
	}

	// Case differences map to the same email window
	allowed, err := gate.AllowStart(ctx, "ada@example.com", "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, allowed, "4th start for the same email should be denied")

	allowed, err = gate.AllowStart(ctx, "grace@example.com", "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed, "other emails should not be affected")
}

func TestRecoveryStartGate_PerIP(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	gate := NewRecoveryStartGate(NewRedisRateLimiter(client), config.RecoveryConfig{
		StartsPerEmailPerDay: 100,
		StartsPerIPPerHour:   2,
	})

	allowed, err := gate.AllowStart(ctx, "a@example.com", "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = gate.AllowStart(ctx, "b@example.com", "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = gate.AllowStart(ctx, "c@example.com", "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, allowed, "3rd start from the same ip should be denied")

	allowed, err = gate.AllowStart(ctx, "d@example.com", "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, allowed, "other ips should not be affected")
}
