// Package cache stores serialized parse results with a TTL.
// Redis is used when REDIS_URL is set; otherwise results live in process memory.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidURL is returned when REDIS_URL cannot be parsed.
var ErrInvalidURL = errors.New("cache: invalid redis url")

// Cache is a byte-oriented TTL store.
type Cache interface {
	// Get returns the value for key. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Noop is a Cache that never stores anything. It is used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Name() string { return "none" }
