// Package cache stores raw miner replies in an external key-value store
// so repeated probes within one scheduler tick hit the device only once.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when a key is absent or its TTL has expired.
// The two cases are indistinguishable to callers.
var ErrMiss = errors.New("cache miss")

// Store is the key-value capability the device client consumes. The raw
// pre-decode bytes are cached, never the parsed response, so a hit flows
// through the same repair/parse path as a live reply.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for one host+command pair.
func Key(prefix, host, command string) string {
	return prefix + host + "-" + command
}

// Noop is the Store used when caching is disabled or the backend is
// unreachable: every read misses, every write is dropped.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }

func (Noop) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (Noop) Close() error { return nil }
