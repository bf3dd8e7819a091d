package datasource

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/datamask/pkg/masking"
)

// cacheEntry holds a decoded upstream payload with its fetch time.
type cacheEntry struct {
	value     masking.Value
	fetchedAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL expiration for raw
// (unmasked) upstream payloads. Expired entries are dropped lazily on Get()
// and in bulk by Purge().
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a new cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value if present and not expired.
func (c *Cache) Get(key string) (masking.Value, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return masking.Value{}, false
	}

	if c.now().Sub(entry.fetchedAt) > c.ttl {
		// Re-check under write lock: a concurrent Set() may have replaced
		// the entry with a fresh one between RUnlock and Lock.
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && c.now().Sub(current.fetchedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return masking.Value{}, false
	}

	return entry.value, true
}

// Set stores value with the current timestamp.
func (c *Cache) Set(key string, value masking.Value) {
	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		value:     value,
		fetchedAt: c.now(),
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes every expired entry and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.fetchedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
