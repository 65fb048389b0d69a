package cryptoprice

import (
	"sync"
	"time"

	"crypto-mcp/internal/binance"
)

type cacheItem struct {
	ticker     binance.Ticker
	expiration time.Time
}

// Cache is a minimal in-memory TTL cache of tickers keyed by trading pair, safe for concurrent access.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCache constructs an empty Cache instance.
func NewCache() *Cache { return &Cache{items: make(map[string]cacheItem), now: time.Now} }

// Set stores a ticker with a time-to-live under its pair.
func (c *Cache) Set(pair string, t binance.Ticker, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[pair] = cacheItem{ticker: t, expiration: c.now().Add(ttl)}
}

// Get retrieves a non-expired ticker for the pair, returning false if missing or expired.
func (c *Cache) Get(pair string) (binance.Ticker, bool) {
	c.mu.RLock()
	it, ok := c.items[pair]
	c.mu.RUnlock()
	if !ok {
		return binance.Ticker{}, false
	}
	if c.now().After(it.expiration) {
		c.mu.Lock()
		// A concurrent Set may have refreshed the entry since the read.
		if cur, ok := c.items[pair]; ok && c.now().After(cur.expiration) {
			delete(c.items, pair)
		}
		c.mu.Unlock()
		return binance.Ticker{}, false
	}
	return it.ticker, true
}

// Len reports how many entries are held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
