package oracle

import (
	"sync"
	"time"
)

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

type cacheEntry struct {
	quote   Quote
	expires time.Time
}

// QuoteCache holds quotes for a fixed TTL. Expiry is checked on read;
// expired entries are dropped lazily.
type QuoteCache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	data   map[string]cacheEntry
	hits   uint64
	misses uint64

	now func() time.Time
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:  ttl,
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

func (c *QuoteCache) Get(key string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		c.misses++
		return Quote{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.data, key)
		c.misses++
		return Quote{}, false
	}
	c.hits++
	return entry.quote, true
}

func (c *QuoteCache) Set(key string, quote Quote) {
	c.mu.Lock()
	c.data[key] = cacheEntry{quote: quote, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops all entries. Hit and miss counters survive.
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	c.data = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *QuoteCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.data)}
}
