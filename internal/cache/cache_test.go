package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a so b becomes the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
}

func TestExpiry(t *testing.T) {
	c := NewLRU[int](4, time.Nanosecond)
	c.Set("a", 1)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	c.Set("b", 2)
	time.Sleep(time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("size = %d, want 0", c.Size())
	}
}

func TestDelete(t *testing.T) {
	c := NewLRU[int](8, time.Minute)
	c.Set("1", 1)
	c.Set("2", 2)

	c.Delete("1")
	c.Delete("missing") // no-op

	if _, ok := c.Get("1"); ok {
		t.Error("deleted key should be gone")
	}
	if _, ok := c.Get("2"); !ok {
		t.Error("other key should survive")
	}
}
