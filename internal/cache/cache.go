// Package cache stores computed analysis reports between requests.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes a cached JSON value into v. A miss returns false, nil.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("GetJSON: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v as JSON and caches it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("SetJSON: encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Noop never stores anything.
type Noop struct{}

// Get implements Cache.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Cache.
func (Noop) Delete(context.Context, string) error { return nil }

// Close implements Cache.
func (Noop) Close() error { return nil }
