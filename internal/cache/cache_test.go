package cache

import (
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New[string](10 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("a", "one", time.Time{})
	c.Set("b", "two", now.Add(2*time.Second))

	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	now = now.Add(3 * time.Second)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should expire at its own deadline")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should still be cached")
	}

	now = now.Add(10 * time.Second)
	c.Sweep()
	if c.Len() != 0 {
		t.Fatalf("Len after sweep = %d", c.Len())
	}
}

func TestCache_EvictKeepsRefreshedEntry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New[string](time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "old", time.Time{})
	now = now.Add(2 * time.Second)

	// a reader saw "old" expired, then a writer refreshed the key before the eviction ran
	c.Set("k", "new", time.Time{})
	c.evictIfExpired("k", now)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get = %q, %v; want refreshed value", v, ok)
	}

	now = now.Add(2 * time.Second)
	c.evictIfExpired("k", now)
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted")
	}
}
