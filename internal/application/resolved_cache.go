package application

import (
	"sync"
	"time"
)

// ResolvedServiceCache keeps recently joined services keyed by service ID so
// repeated program renders and dispatches skip the repository round trips.
// The SchedulingService owns invalidation: every write clears the cache and
// advances its generation, so a join read before the write is never stored.
type ResolvedServiceCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]resolvedCacheEntry
	generation uint64
}

type resolvedCacheEntry struct {
	service   ResolvedService
	expiresAt time.Time
}

// NewResolvedServiceCache constructs a cache. Non-positive arguments fall back
// to a 30 second TTL and 128 entries.
func NewResolvedServiceCache(ttl time.Duration, maxEntries int, now func() time.Time) *ResolvedServiceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &ResolvedServiceCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]resolvedCacheEntry),
	}
}

// Get returns a copy of the cached projection for id.
func (c *ResolvedServiceCache) Get(id string) (ResolvedService, bool) {
	if c == nil {
		return ResolvedService{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return ResolvedService{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return ResolvedService{}, false
	}
	return entry.service.Clone(), true
}

// Generation identifies the current contents of the cache. Take it before
// reading the repositories and hand it to StoreIfCurrent afterwards.
func (c *ResolvedServiceCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store caches a copy of svc under its service ID.
func (c *ResolvedServiceCache) Store(svc ResolvedService) {
	if c == nil {
		return
	}
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()
	c.StoreIfCurrent(svc, gen)
}

// StoreIfCurrent caches svc only when no Invalidate has happened since gen
// was taken. It reports whether the entry was stored.
func (c *ResolvedServiceCache) StoreIfCurrent(svc ResolvedService, gen uint64) bool {
	if c == nil || svc.Service.ID == "" {
		return false
	}
	cloned := svc.Clone()
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.cleanupLocked()
	if _, exists := c.entries[svc.Service.ID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[svc.Service.ID] = resolvedCacheEntry{service: cloned, expiresAt: expiry}
	return true
}

// Invalidate drops every cached entry and advances the generation.
func (c *ResolvedServiceCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]resolvedCacheEntry)
	c.generation++
	c.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (c *ResolvedServiceCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResolvedServiceCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *ResolvedServiceCache) evictOneLocked() {
	var (
		victim string
		oldest time.Time
	)
	for key, entry := range c.entries {
		if victim == "" || entry.expiresAt.Before(oldest) {
			victim, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, victim)
}
