package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, found, err := m.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
	if err := m.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	v, found, err := m.Get(ctx, "k")
	if err != nil || !found || string(v) != "v1" {
		t.Fatalf("get = %q found=%v err=%v", v, found, err)
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("first"), 0)
	_ = m.Set(ctx, "k", []byte("second"), 0)
	v, _, _ := m.Get(ctx, "k")
	if string(v) != "second" {
		t.Fatalf("get = %q, want second", v)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatal("expired entry still readable")
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("v"), 0)
	_ = m.Delete(ctx, "k")
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatal("deleted entry still readable")
	}
}
