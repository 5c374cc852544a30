package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"
)

func newTestManager(t *testing.T, maxSize int) (*CacheManager, *time.Time) {
	t.Helper()
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: time.Hour})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	t.Cleanup(func() { _ = m.Close() })
	return m, &now
}

func TestNewManagerDisabled(t *testing.T) {
	if m := NewManager(config.CacheConfig{Enabled: false}); m != nil {
		t.Fatal("disabled cache should be nil")
	}
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 10)

	if _, err := m.Get(ctx, "prompt", "img"); !errors.Is(err, common.ErrCacheMiss) {
		t.Fatalf("error = %v, want ErrCacheMiss", err)
	}
	if err := m.Set(ctx, "prompt", "img", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.Get(ctx, "prompt", "img")
	if err != nil || got != "value" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if _, err := m.Get(ctx, "prompt", "other-img"); !errors.Is(err, common.ErrCacheMiss) {
		t.Fatal("different image must miss")
	}

	stats := m.GetStats()
	if stats["hits"].(int64) != 1 || stats["misses"].(int64) != 2 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	m, now := newTestManager(t, 10)

	_ = m.Set(ctx, "p", "", "v")
	*now = now.Add(2 * time.Hour)

	if _, err := m.Get(ctx, "p", ""); !errors.Is(err, common.ErrCacheMiss) {
		t.Fatalf("expired entry returned, err = %v", err)
	}
}

func TestEvictLRU(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 2)

	_ = m.Set(ctx, "a", "", "A")
	_ = m.Set(ctx, "b", "", "B")
	if _, err := m.Get(ctx, "a", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, "c", "", "C"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := m.Get(ctx, "b", ""); err == nil {
		t.Error("least used entry should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, err := m.Get(ctx, k, ""); err != nil {
			t.Errorf("%s should still be cached", k)
		}
	}
}
