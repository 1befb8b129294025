package cache

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
)

// Cache key prefixes.
const (
	TagsCachePrefix        = "catalog-tags-"
	IngredientsCachePrefix = "catalog-ingredients-"
)

// catalogTag marks every catalog entry so imports can invalidate them together.
const catalogTag = "catalog"

// CatalogCache is a read-through cache for the tag and ingredient catalogs.
// It never holds user specific data.
type CatalogCache struct {
	tags        *PrefixedCache[[]database.Tag]
	ingredients *PrefixedCache[[]database.Ingredient]
}

// NewCatalogCache creates the catalog cache backed by the configured store.
func NewCatalogCache(cfg *config.CacheConfig) *CatalogCache {
	c := newCacheInstanceByType(cfg)
	return &CatalogCache{
		tags:        NewPrefixedCache[[]database.Tag](c, TagsCachePrefix),
		ingredients: NewPrefixedCache[[]database.Ingredient](c, IngredientsCachePrefix),
	}
}

// Tags returns the cached tag list, calling load on a miss.
func (c *CatalogCache) Tags(ctx context.Context, load func(context.Context) ([]database.Tag, error)) ([]database.Tag, error) {
	return getOrLoad(ctx, c.tags, "all", load)
}

// Ingredients returns the cached ingredients matching a name prefix, calling load on a miss.
func (c *CatalogCache) Ingredients(ctx context.Context, prefix string, load func(context.Context) ([]database.Ingredient, error)) ([]database.Ingredient, error) {
	key := "name:" + strings.ToLower(strings.TrimSpace(prefix))
	return getOrLoad(ctx, c.ingredients, key, load)
}

// Invalidate drops every cached catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.tags.Invalidate(ctx, store.WithInvalidateTags([]string{catalogTag})); err != nil {
		log.Errorf("failed to invalidate catalog cache: %v", err)
	}
}

// Stats returns the hit and miss counters of the catalog cache.
func (c *CatalogCache) Stats() *Stats {
	return &Stats{Stats: c.tags.GetStats(), CacheName: "catalog"}
}

func getOrLoad[T any](ctx context.Context, p *PrefixedCache[T], key string, load func(context.Context) (T, error)) (T, error) {
	if cached, err := p.Get(ctx, key); err == nil {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := p.Set(ctx, key, value, store.WithTags([]string{catalogTag})); err != nil {
		log.Warn("failed to store catalog entry in cache", "key", key, "error", err)
	}
	return value, nil
}
