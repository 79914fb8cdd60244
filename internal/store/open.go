package store

import (
	"context"
	"fmt"
	"time"
)

// Cache is implemented by Store and Memory
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PurgeExpired(ctx context.Context) (int64, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}

var (
	_ Cache = (*Store)(nil)
	_ Cache = (*Memory)(nil)
)

// Open returns the cache for backend, "sqlite" or "memory"
func Open(backend, path string) (Cache, error) {
	switch backend {
	case "", "sqlite":
		return NewStore(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
