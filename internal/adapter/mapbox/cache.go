package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/observability"
)

// CachedGeocoder memoizes successful lookups of an inner geocoder. Occurrence
// batches repeat the same few localities, so hit rates are high.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder wraps inner with an LRU cache holding up to maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, locality, country string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(locality)) + "|" + strings.ToUpper(country)
	return c.cached(key, "forward", func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, locality, country)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.5f,%.5f", lat, lon)
	return c.cached(key, "reverse", func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) cached(key, method string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if r, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return r, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	r, err := fetch()
	if err != nil {
		return r, err
	}
	// Empty answers stay uncached so they are retried on the next batch.
	if r.FormattedAddress != "" {
		c.cache.put(key, r)
	}
	return r, nil
}

// lruCache is a mutex-guarded LRU keyed by lookup string.
type lruCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type cacheItem struct {
	key   string
	value domain.GeocodingResult
}

func newLRUCache(limit int) *lruCache {
	if limit < 1 {
		limit = 1
	}
	return &lruCache{
		limit: limit,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).value, true
}

func (c *lruCache) put(key string, value domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheItem).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheItem{key: key, value: value})

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
