package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/igwemiracle/project-management-app-frontend/domain"
	"github.com/igwemiracle/project-management-app-frontend/storage"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return m, rc, func() {
		rc.Close()
		m.Close()
	}
}

func TestCacheUpdaterRefreshBoardStoresPayload(t *testing.T) {
	m, rc, cleanup := setupRedis(t)
	defer cleanup()

	store := storage.New()
	store.UpsertBoard(domain.Board{ID: "b1", Workspace: "w1", Title: "Sprint"})
	store.UpsertList(domain.List{ID: "l1", Board: "b1"})
	store.UpsertCard(domain.Card{ID: "c1", List: "l1", Board: "b1"})

	c := newCacheUpdater(store, rc, time.Hour)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.RefreshBoard(context.Background(), "b1")

	raw, err := m.Get(cacheKey("b1"))
	if err != nil {
		t.Fatalf("cache entry missing: %v", err)
	}
	var payload cachedSnapshot
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Version != 1 {
		t.Fatalf("unexpected version %d", payload.Version)
	}
	if !payload.CachedAt.Equal(fixed) {
		t.Fatalf("unexpected cachedAt %v", payload.CachedAt)
	}
	if payload.Snapshot.Board.ID != "b1" || len(payload.Snapshot.Lists) != 1 {
		t.Fatalf("unexpected snapshot %+v", payload.Snapshot)
	}
	if ttl := m.TTL(cacheKey("b1")); ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestCacheUpdaterDeletesEntryForMissingBoard(t *testing.T) {
	m, rc, cleanup := setupRedis(t)
	defer cleanup()

	m.Set(cacheKey("b1"), "stale")
	c := newCacheUpdater(storage.New(), rc, time.Hour)
	c.RefreshBoard(context.Background(), "b1")
	if m.Exists(cacheKey("b1")) {
		t.Fatal("stale entry should be deleted when board is gone")
	}
}

func TestCacheUpdaterNilReceiversAreSafe(t *testing.T) {
	var c *cacheUpdater
	c.RefreshBoard(context.Background(), "b1")

	c = newCacheUpdater(nil, nil, 0)
	c.RefreshBoard(context.Background(), "b1")
}
