package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(withClock(clock.Now))

	if err := mc.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := mc.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("get = %q, %v", v, err)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
	if mc.Len() != 0 {
		t.Fatalf("expired entry should be evicted on access")
	}
}

func TestMemoryCacheLRU(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))

	_ = mc.Set(ctx, "a", []byte("1"), 0)
	_ = mc.Set(ctx, "b", []byte("2"), 0)
	// touch a so b becomes the eviction candidate
	if _, err := mc.Get(ctx, "a"); err != nil {
		t.Fatalf("get a: %v", err)
	}
	_ = mc.Set(ctx, "c", []byte("3"), 0)

	if _, err := mc.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, err := mc.Get(ctx, k); err != nil {
			t.Fatalf("%s missing: %v", k, err)
		}
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	buf := []byte("abc")
	_ = mc.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	v, _ := mc.Get(ctx, "k")
	if string(v) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", v)
	}
	v[1] = 'y'
	again, _ := mc.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased cache: %q", again)
	}
}

func TestLayeredCache(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemorySize(4))

	if err := lc.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := l2.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("write-through to L2 failed: %q %v", v, err)
	}

	_ = lc.l1.Delete(ctx, "k")
	if v, err := lc.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("L2 fallback failed: %q %v", v, err)
	}
	if _, err := lc.l1.Get(ctx, "k"); err != nil {
		t.Fatal("L2 hit should repopulate L1")
	}

	_ = lc.Delete(ctx, "k")
	if _, err := lc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	type payload struct{ N int }

	if err := SetJSON(ctx, mc, "p", payload{N: 7}, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	got, err := GetJSON[payload](ctx, mc, "p")
	if err != nil || got.N != 7 {
		t.Fatalf("GetJSON = %+v, %v", got, err)
	}
	if _, err := GetJSON[payload](ctx, mc, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestHashKey(t *testing.T) {
	if got := HashKey([]byte("")); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("HashKey(\"\") = %s", got)
	}
	if HashKey([]byte("a")) == HashKey([]byte("b")) {
		t.Fatal("distinct inputs should hash differently")
	}
}
