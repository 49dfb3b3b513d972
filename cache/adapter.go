// Package cache provides the key/value store used for fetched remote bodies
// and cross-process locks. Redis is used when configured, else an in-process
// cache.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/vaultctl/cache/local"
	cacheredis "github.com/kasuganosora/vaultctl/cache/redis"
)

// ErrNotFound is returned by Get for a missing or expired key,
// whichever backend is in use.
var ErrNotFound = errors.New("cache: key not found")

// Cache defines the KV operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Close() error
}

// CacheConfig holds configuration for both Redis and LocalCache.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

// NewCache returns a Cache backed by Redis if RedisAddr is set,
// otherwise returns an in-process LocalCache.
func NewCache(cfg CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		rc, err := cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return notFoundAdapter{rc}, nil
	}
	lc, err := local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
	if err != nil {
		return nil, err
	}
	return notFoundAdapter{lc}, nil
}

// notFoundAdapter maps the backends' own not-found errors to ErrNotFound.
type notFoundAdapter struct {
	Cache
}

func mapErr(err error) error {
	if errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (a notFoundAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.Cache.Get(ctx, key)
	return v, mapErr(err)
}
