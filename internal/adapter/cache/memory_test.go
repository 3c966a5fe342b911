package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.clock = func() time.Time { return now }

	if err := m.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "forever", []byte("2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := m.Get(ctx, "a"); !ok || string(v) != "1" {
		t.Fatalf("Get before expiry = %q, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatalf("entry should expire at its deadline")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without ttl expired")
	}
}

func TestMemoryValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf, 0)
	buf[0] = 'z'
	v, _, _ := m.Get(ctx, "k")
	if string(v) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", v)
	}
	v[1] = 'z'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}

func TestMemoryCountersAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if n, _ := m.Counter(ctx, "gen"); n != 0 {
		t.Fatalf("fresh counter = %d", n)
	}
	for want := int64(1); want <= 3; want++ {
		n, err := m.Incr(ctx, "gen")
		if err != nil || n != want {
			t.Fatalf("Incr = %d, %v, want %d", n, err, want)
		}
	}
	if n, _ := m.Counter(ctx, "gen"); n != 3 {
		t.Fatalf("Counter = %d, want 3", n)
	}

	_ = m.Set(ctx, "x", []byte("1"), 0)
	if err := m.Delete(ctx, "x", "gen", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "x"); ok {
		t.Fatalf("deleted key still present")
	}
	if n, _ := m.Counter(ctx, "gen"); n != 0 {
		t.Fatalf("deleted counter = %d", n)
	}
}

func TestMemoryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewMemory().Get(ctx, "k"); err == nil {
		t.Fatalf("expected context error")
	}
}
