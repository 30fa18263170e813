package cache

import (
	"sync"
	"time"
)

// Cache is a small read-through cache for hot records (characters,
// prompts). Values are serialized by the caller.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}

type item struct {
	value      string
	expiration int64
}

func (it item) expired() bool {
	if it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

// Memory is a thread-safe in-memory cache with expiration.
type Memory struct {
	items    map[string]item
	mu       sync.RWMutex
	maxItems int
}

// NewMemory creates an in-memory cache holding at most maxItems
// entries. Expired entries are dropped lazily on read and on insert.
func NewMemory(maxItems int) *Memory {
	return &Memory{
		items:    make(map[string]item),
		maxItems: maxItems,
	}
}

// Get retrieves an item from the cache.
func (c *Memory) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired() {
		return "", false
	}
	return it.value, true
}

// Set adds an item with the given TTL. Zero TTL means no expiration.
func (c *Memory) Set(key, value string, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxItems > 0 && len(c.items) >= c.maxItems {
		if _, exists := c.items[key]; !exists {
			c.evictOne()
		}
	}

	c.items[key] = item{value: value, expiration: exp}
}

// Delete removes an item from the cache.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// evictOne drops an expired entry if any exists, otherwise the entry
// closest to expiry. Called with the lock held.
func (c *Memory) evictOne() {
	var (
		victim   string
		earliest int64 = -1
	)
	for k, it := range c.items {
		if it.expired() {
			delete(c.items, k)
			return
		}
		if earliest == -1 || (it.expiration != 0 && it.expiration < earliest) {
			victim = k
			earliest = it.expiration
		}
	}
	if victim != "" {
		delete(c.items, victim)
	}
}
