// Package cache provides key/value caching for analyses and mapped element
// models.
//
// The server keeps the last analysis loaded by each client and the mapped
// element model of every analysis it has served; the CLI keeps the last
// analysis it rendered. All of them go through the [Cache] interface:
//
//   - [FileCache]: one file per entry under a directory (CLI)
//   - [MemoryCache]: bounded in-process LRU with TTLs
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: caching disabled
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	keys := cache.NewDefaultKeyer()
//
//	if err := cache.SetJSON(ctx, c, keys.LastAnalysisKey("cli"), analysis, 0); err != nil {
//	    return err
//	}
//	var a graph.Analysis
//	ok, err := cache.GetJSON(ctx, c, keys.LastAnalysisKey("cli"), &a)
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores opaque values under string keys.
type Cache interface {
	// Get returns the value and true on a hit, false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// GetJSON reads a JSON value into v. It reports whether the key was found.
// An entry that no longer decodes is deleted and reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores v as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
