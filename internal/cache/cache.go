package cache

import (
	"sync"
	"time"
)

// Cache is a small TTL map. Expired entries are dropped on read and by Sweep.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry[V]
	now func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if now.After(e.exp) {
		c.evictIfExpired(key, now)
		var zero V
		return zero, false
	}

	return e.val, true
}

// evictIfExpired re-checks under the write lock; a Set may have replaced the entry since
// the read lock was dropped.
func (c *Cache[V]) evictIfExpired(key string, now time.Time) {
	c.mu.Lock()
	if cur, ok := c.m[key]; ok && now.After(cur.exp) {
		delete(c.m, key)
	}
	c.mu.Unlock()
}

// Set stores val until ttl elapses, or until exp if that comes first.
func (c *Cache[V]) Set(key string, val V, exp time.Time) {
	limit := c.now().Add(c.ttl)
	if exp.IsZero() || exp.After(limit) {
		exp = limit
	}

	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: exp}
	c.mu.Unlock()
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Sweep removes every expired entry.
func (c *Cache[V]) Sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
