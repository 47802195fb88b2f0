// FilePath: internal/cache/cache.redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const latestHashKey = "tdshub:latest"

// RedisCache keeps the latest-reading map in a redis hash so liveness
// display survives process restarts.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	nuts.L.Infof("[RedisCache] Connected to %s:%d (db %d)", cfg.Host, cfg.Port, cfg.DB)
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client; used by tests.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Set(ctx context.Context, reading models.RawReading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return errors.NewInternalError("failed to marshal reading", err)
	}
	if err := c.client.HSet(ctx, latestHashKey, reading.DeviceID, payload).Err(); err != nil {
		return errors.NewInternalError("failed to cache latest reading", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, deviceID string) (*models.RawReading, bool, error) {
	payload, err := c.client.HGet(ctx, latestHashKey, deviceID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternalError("failed to read latest reading", err)
	}
	var reading models.RawReading
	if err := json.Unmarshal([]byte(payload), &reading); err != nil {
		return nil, false, errors.NewInternalError("failed to unmarshal cached reading", err)
	}
	return &reading, true, nil
}

func (c *RedisCache) All(ctx context.Context) ([]models.RawReading, error) {
	entries, err := c.client.HGetAll(ctx, latestHashKey).Result()
	if err != nil {
		return nil, errors.NewInternalError("failed to list latest readings", err)
	}
	readings := make([]models.RawReading, 0, len(entries))
	for device, payload := range entries {
		var reading models.RawReading
		if err := json.Unmarshal([]byte(payload), &reading); err != nil {
			nuts.L.Warnf("[RedisCache] Dropping unreadable cache entry for %s: %v", device, err)
			continue
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
