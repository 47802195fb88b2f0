package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aquasense/tdshub/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(deviceID string, tds float64) models.RawReading {
	return models.RawReading{
		ID:            "rr-" + deviceID,
		DeviceID:      deviceID,
		TDSPpm:        tds,
		CapturedAt:    time.Now().UTC().Truncate(time.Second),
		CapturedEpoch: time.Now().Unix(),
	}
}

func runCacheContract(t *testing.T, c LatestCache) {
	ctx := context.Background()

	// Empty cache
	_, ok, err := c.Get(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// Set and read back
	require.NoError(t, c.Set(ctx, reading("device-1", 180)))
	require.NoError(t, c.Set(ctx, reading("device-2", 220)))

	got, ok, err := c.Get(ctx, "device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "device-1", got.DeviceID)
	assert.InDelta(t, 180.0, got.TDSPpm, 1e-9)

	// Last write wins
	require.NoError(t, c.Set(ctx, reading("device-1", 195)))
	got, ok, err = c.Get(ctx, "device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 195.0, got.TDSPpm, 1e-9)

	all, err = c.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryCache_Contract(t *testing.T) {
	runCacheContract(t, NewMemoryCache())
}

func TestRedisCache_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	runCacheContract(t, NewRedisCacheFromClient(client))
}

func TestRedisCache_SurvivesReconnect(t *testing.T) {
	mr := miniredis.RunT(t)

	first := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c1 := NewRedisCacheFromClient(first)
	require.NoError(t, c1.Set(context.Background(), reading("device-1", 300)))
	require.NoError(t, first.Close())

	// A fresh client sees the entry; liveness display survives restarts.
	second := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer second.Close()
	c2 := NewRedisCacheFromClient(second)

	got, ok, err := c2.Get(context.Background(), "device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 300.0, got.TDSPpm, 1e-9)
}
