package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Ristretto is an in-process cache. Cost is the value size in bytes.
type Ristretto struct {
	c *ristretto.Cache
}

// NewRistretto creates a cache bounded to maxBytes of values.
func NewRistretto(maxBytes int64) (*Ristretto, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("NewRistretto: %w", err)
	}
	return &Ristretto{c: c}, nil
}

// Get implements Cache.
func (r *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := r.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set implements Cache. Writes are applied asynchronously and may be dropped
// under contention; Wait blocks until buffered writes are visible.
func (r *Ristretto) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

// Wait blocks until pending writes have been applied.
func (r *Ristretto) Wait() {
	r.c.Wait()
}

// Delete implements Cache.
func (r *Ristretto) Delete(_ context.Context, key string) error {
	r.c.Del(key)
	return nil
}

// Close implements Cache.
func (r *Ristretto) Close() error {
	r.c.Close()
	return nil
}
