// ABOUTME: Key/value storage behind the snapshot cache
// ABOUTME: Badger for local use, Redis for a slot shared between machines
package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get for absent keys.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// StoreConfig selects and configures a Store.
type StoreConfig struct {
	Backend     string
	Dir         string // badger directory, empty for in-memory
	RedisAddr   string
	RedisPrefix string
}

// OpenStore opens the configured backend.
func OpenStore(cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendBadger:
		return OpenBadgerStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
