package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New[string, uint64](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "m1", 1000, time.Second)
	c.Set(ctx, "m2", 2000, 0)

	if v, ok := c.Get(ctx, "m1"); !ok || v != 1000 {
		t.Fatalf("Get(m1) = %d, %v; want 1000, true", v, ok)
	}

	now = now.Add(2 * time.Second)

	if _, ok := c.Get(ctx, "m1"); ok {
		t.Error("m1 should have expired")
	}
	if v, ok := c.Get(ctx, "m2"); !ok || v != 2000 {
		t.Errorf("Get(m2) = %d, %v; want 2000, true", v, ok)
	}

	c.evictExpired()
	if c.Len() != 1 {
		t.Errorf("Len() = %d after eviction, want 1", c.Len())
	}

	c.Delete(ctx, "m2")
	if _, ok := c.Get(ctx, "m2"); ok {
		t.Error("m2 should be deleted")
	}
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New[int, int](10 * time.Millisecond)
	c.Close()
	c.Close()
}
