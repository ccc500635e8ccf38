package cache

import (
	"context"
	"time"

	"github.com/matzehuels/archmap/pkg/observability"
)

// Instrumented reports hits, misses and writes of the wrapped cache to the
// registered cache hooks, labelled by KeyType.
type Instrumented struct {
	Cache
}

// Instrument wraps c. Wrapping an already instrumented cache returns it.
func Instrument(c Cache) Cache {
	if i, ok := c.(*Instrumented); ok {
		return i
	}
	return &Instrumented{Cache: c}
}

// Get implements Cache.
func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := i.Cache.Get(ctx, key)
	if err != nil {
		return data, ok, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, KeyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, KeyType(key))
	}
	return data, ok, nil
}

// Set implements Cache.
func (i *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := i.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}

// Clear forwards to the wrapped cache when it supports clearing.
func (i *Instrumented) Clear(ctx context.Context) error {
	if c, ok := i.Cache.(Clearer); ok {
		return c.Clear(ctx)
	}
	return nil
}
