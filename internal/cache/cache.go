// FilePath: internal/cache/cache.go
package cache

import (
	"context"
	"sync"

	"github.com/aquasense/tdshub/internal/models"
)

// LatestCache stores the last observed reading per device. It backs
// connectivity display only; analysis correctness never depends on it.
// Last write wins.
type LatestCache interface {
	Set(ctx context.Context, reading models.RawReading) error
	Get(ctx context.Context, deviceID string) (*models.RawReading, bool, error)
	All(ctx context.Context) ([]models.RawReading, error)
}

// MemoryCache is a lock-guarded in-process map, used when no redis host
// is configured. Created at process start, lives for the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.RawReading
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]models.RawReading)}
}

func (c *MemoryCache) Set(_ context.Context, reading models.RawReading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[reading.DeviceID] = reading
	return nil
}

func (c *MemoryCache) Get(_ context.Context, deviceID string) (*models.RawReading, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reading, ok := c.entries[deviceID]
	if !ok {
		return nil, false, nil
	}
	return &reading, true, nil
}

func (c *MemoryCache) All(_ context.Context) ([]models.RawReading, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	readings := make([]models.RawReading, 0, len(c.entries))
	for _, r := range c.entries {
		readings = append(readings, r)
	}
	return readings, nil
}
