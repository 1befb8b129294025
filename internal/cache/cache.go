package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/jon4hz/foodgram/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// PrefixedCache wraps a cache.Cache, adds a prefix to all keys and stores values as JSON.
type PrefixedCache[T any] struct {
	cache  *cache.Cache[any]
	prefix string
}

// NewPrefixedCache creates a new prefixed cache wrapper.
func NewPrefixedCache[T any](c *cache.Cache[any], prefix string) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:  c,
		prefix: prefix,
	}
}

func (p *PrefixedCache[T]) key(key any) string {
	return p.prefix + fmt.Sprintf("%v", key)
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key any) (T, error) {
	var result T
	value, err := p.cache.Get(ctx, p.key(key))
	if err != nil {
		return result, err
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		// redis hands values back as strings
		data = []byte(v)
	default:
		return result, fmt.Errorf("unexpected cache value type %T", value)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key any, object T, options ...store.Option) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, p.key(key), data, options...)
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key any) error {
	return p.cache.Delete(ctx, p.key(key))
}

// Invalidate removes values from the cache matching the given options, e.g. tags.
func (p *PrefixedCache[T]) Invalidate(ctx context.Context, options ...store.InvalidateOption) error {
	return p.cache.Invalidate(ctx, options...)
}

// Clear removes all values from the underlying cache.
func (p *PrefixedCache[T]) Clear(ctx context.Context) error {
	return p.cache.Clear(ctx)
}

// GetType returns the cache type.
func (p *PrefixedCache[T]) GetType() string {
	return p.cache.GetType()
}

// GetStats returns the cache statistics.
func (p *PrefixedCache[T]) GetStats() *codec.Stats {
	return p.cache.GetCodec().GetStats()
}

func newCacheInstanceByType(cfg *config.CacheConfig) *cache.Cache[any] {
	ttl := time.Duration(cfg.TTL) * time.Second
	switch cfg.Type {
	case config.CacheTypeRedis:
		return newRedisCache(cfg.RedisURL, ttl)
	default:
		return newMemoryCache(ttl)
	}
}

func newMemoryCache(ttl time.Duration) *cache.Cache[any] {
	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	gocacheClient := gocache.New(expiration, 10*time.Minute)
	gocacheStore := go_store.NewGoCache(gocacheClient, store.WithExpiration(expiration))
	return cache.New[any](gocacheStore)
}

func newRedisCache(addr string, ttl time.Duration) *cache.Cache[any] {
	redisClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	redisStore := redis_store.NewRedis(redisClient, store.WithExpiration(ttl))
	return cache.New[any](redisStore)
}

// Stats are the counters of a named cache.
type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}
