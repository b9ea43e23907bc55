package cache

import (
	"testing"
	"time"
)

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[int], *time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](maxSize, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, now := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	*now = now.Add(30 * time.Second)
	c.Set("b", 3)
	*now = now.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to have expired")
	}
	if got := c.CleanExpired(); got != 0 {
		t.Errorf("CleanExpired() = %d, want 0 (a already dropped by Get)", got)
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("Get(b) = %d, %v; want 3, true", v, ok)
	}

	*now = now.Add(time.Minute)
	if got := c.CleanExpired(); got != 1 {
		t.Errorf("CleanExpired() = %d, want 1", got)
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("u1|stats|2024-03", 1)
	c.Set("u1|cards|2024-03", 2)
	c.Set("u10|stats|2024-03", 3)
	c.Set("u2|stats|2024-03", 4)

	if got := c.DeletePrefix("u1|"); got != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", got)
	}
	if _, ok := c.Get("u10|stats|2024-03"); !ok {
		t.Error("u10 entry must survive a u1 invalidation")
	}
	c.Delete("u2|stats|2024-03")
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
