package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/igwemiracle/project-management-app-frontend/internal/consts"
	"github.com/igwemiracle/project-management-app-frontend/storage"
)

type snapshotStore interface {
	Snapshot(boardID string) (storage.BoardSnapshot, bool)
}

// cacheUpdater mirrors the local board projection into redis so other
// local consumers can read the latest snapshot without hitting the
// REST backend. Entries expire on their own; a deleted board's entry
// is dropped eagerly.
type cacheUpdater struct {
	store snapshotStore
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

type cachedSnapshot struct {
	Version  int                   `json:"version"`
	CachedAt time.Time             `json:"cachedAt"`
	Snapshot storage.BoardSnapshot `json:"snapshot"`
}

func newCacheUpdater(store snapshotStore, client *redis.Client, ttl time.Duration) *cacheUpdater {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &cacheUpdater{store: store, redis: client, ttl: ttl, now: time.Now}
}

func (c *cacheUpdater) RefreshBoard(ctx context.Context, boardID string) {
	if c == nil || c.redis == nil || c.store == nil {
		return
	}
	key := cacheKey(boardID)
	snap, ok := c.store.Snapshot(boardID)
	if !ok {
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			log.WithError(err).WithField("board", boardID).Error("failed to delete snapshot cache entry")
		}
		return
	}
	payload := cachedSnapshot{
		Version:  1,
		CachedAt: c.now().UTC(),
		Snapshot: snap,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("board", boardID).Error("failed to marshal snapshot cache payload")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("board", boardID).Error("failed to store snapshot cache entry")
	}
}

func cacheKey(boardID string) string {
	return consts.SnapshotKeyPrefix + ":" + boardID
}
