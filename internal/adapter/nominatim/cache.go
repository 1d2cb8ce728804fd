package nominatim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/couchcryptid/insurance-news-map/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// CachedGeocoder implements domain.Geocoder over a GeocodeProvider. It owns
// the geocode cache: entries are keyed by the exact place-name string, expire
// after ttl, and are only written for finite coordinates. Concurrent misses for
// the same name share one provider call.
type CachedGeocoder struct {
	provider domain.GeocodeProvider
	cache    *lruCache
	ttl      time.Duration
	clock    clockwork.Clock
	flights  singleflight.Group
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocode provider.
func NewCachedGeocoder(provider domain.GeocodeProvider, maxEntries int, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		provider: provider,
		cache:    newLRUCache(maxEntries),
		ttl:      ttl,
		clock:    clockwork.NewRealClock(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve returns cached coordinates for a fresh entry, otherwise asks the
// provider. Provider errors, empty results, and non-finite coordinates all
// resolve to false and are not cached.
func (c *CachedGeocoder) Resolve(ctx context.Context, name string) (domain.Coordinates, bool) {
	if name == "" {
		return domain.Coordinates{}, false
	}

	if coords, ok := c.fresh(name); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, true
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	v, err, _ := c.flights.Do(name, func() (any, error) {
		// A flight that finished just before this one may have filled the entry.
		if coords, ok := c.fresh(name); ok {
			return coords, nil
		}

		results, err := c.provider.Geocode(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 || !results[0].Finite() {
			return nil, nil
		}

		c.cache.put(name, geoEntry{coords: results[0], resolvedAt: c.clock.Now()})
		return results[0], nil
	})
	if err != nil {
		c.logger.Warn("geocoding failed", "location", name, "error", err)
		return domain.Coordinates{}, false
	}

	coords, ok := v.(domain.Coordinates)
	return coords, ok
}

func (c *CachedGeocoder) fresh(name string) (domain.Coordinates, bool) {
	e, ok := c.cache.get(name)
	if !ok || c.clock.Since(e.resolvedAt) >= c.ttl {
		return domain.Coordinates{}, false
	}
	return e.coords, true
}

type geoEntry struct {
	coords     domain.Coordinates
	resolvedAt time.Time
}

// lruCache is a simple thread-safe LRU cache for geocode entries.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value geoEntry
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (geoEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return geoEntry{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value geoEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
