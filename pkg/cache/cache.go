// Package cache defines the read-through cache used by dashboard reads.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores opaque values with a TTL. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Loader serves JSON values from a Cache and collapses concurrent misses on
// the same key into one load.
type Loader struct {
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewLoader returns a Loader. A nil cache or a non-positive ttl disables
// caching; loads still go through singleflight.
func NewLoader(c Cache, ttl time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cache: c, ttl: ttl, logger: logger.With("component", "cache_loader")}
}

func (l *Loader) enabled() bool {
	return l != nil && l.cache != nil && l.ttl > 0
}

// Invalidate drops key. Errors are logged, not returned.
func (l *Loader) Invalidate(ctx context.Context, key string) {
	if !l.enabled() {
		return
	}
	if err := l.cache.Delete(ctx, key); err != nil {
		l.logger.Warn("cache invalidate failed", "key", key, "error", err)
	}
}

// GetOrLoad returns the cached value for key, or calls load, caches and
// returns its result. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, l *Loader, key string, load func(context.Context) (T, error)) (T, error) {
	if l == nil {
		return load(ctx)
	}
	if l.enabled() {
		if raw, err := l.cache.Get(ctx, key); err != nil {
			l.logger.Warn("cache get failed", "key", key, "error", err)
		} else if raw != nil {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			l.logger.Warn("cache entry undecodable", "key", key)
		}
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if l.enabled() {
			if raw, err := json.Marshal(v); err != nil {
				l.logger.Warn("cache encode failed", "key", key, "error", err)
			} else if err := l.cache.Set(ctx, key, raw, l.ttl); err != nil {
				l.logger.Warn("cache set failed", "key", key, "error", err)
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
