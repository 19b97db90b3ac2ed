package cache_test

import (
	"testing"
	"time"

	"github.com/nordvik/treasury-go/internal/infra/cache"
)

func TestCache_RoundTrip(t *testing.T) {
	c := cache.New[int](time.Minute)

	c.Set("co-1", 42)
	if got, ok := c.Get("co-1"); !ok || got != 42 {
		t.Fatalf("Get(co-1) = %d, %v; want 42, true", got, ok)
	}
	if _, ok := c.Get("co-2"); ok {
		t.Error("expected miss for a key never set")
	}

	c.Delete("co-1")
	if _, ok := c.Get("co-1"); ok {
		t.Error("expected miss after delete")
	}
}

func TestCache_EntriesExpire(t *testing.T) {
	c := cache.New[int](50 * time.Millisecond)

	c.Set("co-1", 42)
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("co-1"); ok {
		t.Fatal("expected entry to expire after its TTL")
	}
}

func TestThrottle_AcquireOncePerWindow(t *testing.T) {
	th := cache.NewThrottle(time.Hour)

	ok, _ := th.TryAcquire("company-1")
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, remaining := th.TryAcquire("company-1")
	if ok {
		t.Fatal("expected second acquire within the window to fail")
	}
	if remaining <= 0 {
		t.Errorf("expected positive remaining wait, got %v", remaining)
	}

	// Different keys get independent windows.
	if ok, _ := th.TryAcquire("company-2"); !ok {
		t.Error("expected acquire for a different key to succeed")
	}
}

func TestThrottle_WindowExpires(t *testing.T) {
	th := cache.NewThrottle(50 * time.Millisecond)

	if ok, _ := th.TryAcquire("k"); !ok {
		t.Fatal("expected first acquire to succeed")
	}
	time.Sleep(100 * time.Millisecond)

	if ok, _ := th.TryAcquire("k"); !ok {
		t.Error("expected acquire after window expiry to succeed")
	}
}

func TestThrottle_Reset(t *testing.T) {
	th := cache.NewThrottle(time.Hour)

	th.TryAcquire("k")
	th.Reset("k")

	if ok, _ := th.TryAcquire("k"); !ok {
		t.Error("expected acquire after reset to succeed")
	}
}
