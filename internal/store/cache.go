package store

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how stale a cached quote value may be.
const DefaultCacheTTL = 5 * time.Second

// CachedStore memoizes stock and price reads for burst quote traffic.
// Expiry is epoch-based: once the cache is older than the TTL, the whole
// thing is dropped on the next access. The cache is advisory only — commit
// paths read and write the underlying Store directly and push the results
// back in through NoteStock/NotePrices.
type CachedStore struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	stock  map[string]int
	prices map[string][2]float64
	epoch  time.Time
}

// NewCachedStore wraps a store with a TTL-bounded read cache.
func NewCachedStore(s *Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachedStore{
		store: s,
		ttl:   ttl,
		now:   time.Now,
	}
	c.reset()
	return c
}

func cacheKey(category, item string) string {
	return category + ":" + item
}

// must hold mu
func (c *CachedStore) reset() {
	c.stock = make(map[string]int)
	c.prices = make(map[string][2]float64)
	c.epoch = c.now()
}

// must hold mu
func (c *CachedStore) expire() {
	if c.now().Sub(c.epoch) > c.ttl {
		c.reset()
	}
}

// Stock returns the cached stock level, reading through on a miss.
func (c *CachedStore) Stock(category, item string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire()

	key := cacheKey(category, item)
	if stock, ok := c.stock[key]; ok {
		return stock, nil
	}

	stock, err := c.store.Stock(category, item)
	if err != nil {
		return 0, err
	}
	c.stock[key] = stock
	return stock, nil
}

// Prices returns the cached working prices, reading through on a miss.
func (c *CachedStore) Prices(category, item string) (buy, sell float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire()

	key := cacheKey(category, item)
	if p, ok := c.prices[key]; ok {
		return p[0], p[1], nil
	}

	buy, sell, err = c.store.Prices(category, item)
	if err != nil {
		return 0, 0, err
	}
	c.prices[key] = [2]float64{buy, sell}
	return buy, sell, nil
}

// NoteStock records a stock level just written to the store.
func (c *CachedStore) NoteStock(category, item string, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire()
	c.stock[cacheKey(category, item)] = stock
}

// NotePrices records working prices just written to the store.
func (c *CachedStore) NotePrices(category, item string, buy, sell float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire()
	c.prices[cacheKey(category, item)] = [2]float64{buy, sell}
}

// Invalidate drops any cached values for one item.
func (c *CachedStore) Invalidate(category, item string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(category, item)
	delete(c.stock, key)
	delete(c.prices, key)
}
