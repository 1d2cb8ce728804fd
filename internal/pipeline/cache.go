package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/jonboulle/clockwork"
)

// ResultCache is a single-slot TTL cache holding the last successful payload.
// The slot is replaced wholesale on each successful build and never evicted
// except by going stale.
type ResultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clockwork.Clock
	builtAt time.Time
	payload []domain.EnrichedArticle
	set     bool
}

// NewResultCache creates an empty cache. A nil clock uses real time.
func NewResultCache(ttl time.Duration, clock clockwork.Clock) *ResultCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultCache{ttl: ttl, clock: clock}
}

// Get returns a copy of the payload if the slot is filled and younger than the TTL.
func (c *ResultCache) Get() ([]domain.EnrichedArticle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.set || c.clock.Since(c.builtAt) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.payload), true
}

// Put replaces the slot and returns the build timestamp recorded for it.
func (c *ResultCache) Put(payload []domain.EnrichedArticle) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.builtAt = c.clock.Now()
	c.payload = slices.Clone(payload)
	c.set = true
	return c.builtAt
}

// BuiltAt returns when the slot was last filled, or the zero time.
func (c *ResultCache) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt
}
