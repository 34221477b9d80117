package deals

import (
	"sync/atomic"
	"time"
)

// Cache memoises the most recent batch for a fixed time-to-live.
// Entries are replaced by pointer swap, so a reader always sees either the old
// batch or the new one, never a mix. An expired batch is kept so it can still be
// served as stale data when the source is down.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	entry atomic.Pointer[cacheEntry]
}

type cacheEntry struct {
	batch     *Batch
	expiresAt time.Time
}

// NewCache creates an empty cache with the given time-to-live
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// SetClock replaces the time source (tests)
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached batch and whether it is still fresh.
// The batch is nil when nothing has been stored yet.
func (c *Cache) Get() (*Batch, bool) {
	e := c.entry.Load()
	if e == nil {
		return nil, false
	}
	return e.batch, c.now().Before(e.expiresAt)
}

// Store replaces the cached batch; the new entry expires ttl after now
func (c *Cache) Store(b *Batch) {
	c.entry.Store(&cacheEntry{batch: b, expiresAt: c.now().Add(c.ttl)})
}

// Invalidate expires the current entry without dropping the batch.
// The next fetch goes to the source; the old batch remains available as a fallback.
func (c *Cache) Invalidate() {
	for {
		e := c.entry.Load()
		if e == nil {
			return
		}
		expired := &cacheEntry{batch: e.batch}
		if c.entry.CompareAndSwap(e, expired) {
			return
		}
	}
}

// ExpiresAt returns when the current entry stops being fresh (zero when empty)
func (c *Cache) ExpiresAt() time.Time {
	if e := c.entry.Load(); e != nil {
		return e.expiresAt
	}
	return time.Time{}
}

// storeExpired seeds the cache with a batch that is already stale
func (c *Cache) storeExpired(b *Batch) {
	c.entry.Store(&cacheEntry{batch: b})
}
