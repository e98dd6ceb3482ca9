// Package redis caches GRA coefficient lookups in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/radar-composite/internal/gra"
)

const keyPrefix = "gra:coefficients:"

// KV is the subset of the Redis client used by the cache.
type KV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// cachedEntry also records misses so that repeated lookups for a time
// without coefficients do not reach the database.
type cachedEntry struct {
	Found bool    `json:"found"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	C     float64 `json:"c"`
}

// CachedCoefficientStore wraps a gra.CoefficientStore with a Redis cache.
// Redis failures are logged and the inner store is used directly.
type CachedCoefficientStore struct {
	inner  gra.CoefficientStore
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCoefficientStore creates a cache in front of inner.
func NewCachedCoefficientStore(inner gra.CoefficientStore, kv KV, ttl time.Duration, logger *slog.Logger) *CachedCoefficientStore {
	return &CachedCoefficientStore{inner: inner, kv: kv, ttl: ttl, logger: logger}
}

// NewClient connects to Redis at addr and pings it.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *CachedCoefficientStore) Coefficients(ctx context.Context, at time.Time) (gra.Coefficients, bool, error) {
	key := keyPrefix + at.UTC().Format("200601021504")

	if e, ok := s.get(ctx, key); ok {
		return gra.Coefficients{A: e.A, B: e.B, C: e.C}, e.Found, nil
	}

	c, found, err := s.inner.Coefficients(ctx, at)
	if err != nil {
		return c, found, err
	}
	s.set(ctx, key, cachedEntry{Found: found, A: c.A, B: c.B, C: c.C})
	return c, found, nil
}

func (s *CachedCoefficientStore) get(ctx context.Context, key string) (cachedEntry, bool) {
	data, err := s.kv.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return cachedEntry{}, false
	}
	if err != nil {
		s.logger.Warn("gra cache read failed", "key", key, "error", err)
		return cachedEntry{}, false
	}
	var e cachedEntry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		s.logger.Warn("discarding malformed gra cache entry", "key", key, "error", err)
		return cachedEntry{}, false
	}
	return e, true
}

func (s *CachedCoefficientStore) set(ctx context.Context, key string, e cachedEntry) {
	// NaN does not encode as JSON. Non-finite rows are cached as misses.
	if !(gra.Coefficients{A: e.A, B: e.B, C: e.C}).Valid() {
		e = cachedEntry{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("gra cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("gra cache write failed", "key", key, "error", err)
	}
}
