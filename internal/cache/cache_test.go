package cache

import (
	"context"
	"testing"
	"time"
)

type table struct {
	Rows []string `json:"rows"`
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var miss table
	if ok, err := c.Get(ctx, "k", &miss); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "k", table{Rows: []string{"a", "b"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got table
	ok, err := c.Get(ctx, "k", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got.Rows) != 2 || got.Rows[1] != "b" {
		t.Errorf("unexpected value %+v", got)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", table{})
	now = now.Add(2 * time.Minute)
	var got table
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestMemory_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	c.Set(ctx, Key("players", "rev1", "a"), 1)
	c.Set(ctx, Key("players", "rev1", "b"), 2)
	c.Set(ctx, Key("team", "rev1"), 3)

	if err := c.Invalidate(ctx, Key("players")); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("expected only the team entry to survive, len=%d", c.Len())
	}
}

func TestKey(t *testing.T) {
	if got := Key("players", "7"); got != "fmmetrics:players:7" {
		t.Errorf("Key: got %q", got)
	}
}
