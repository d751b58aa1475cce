package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizprep-backend/internal/config"
)

// SnapshotRepository stores practice session snapshots in Redis, one key per session.
type SnapshotRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotRepository creates a new SnapshotRepository. A zero ttl keeps keys forever.
func NewSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{rdb: rdb, ttl: ttl}
}

// Get returns the stored snapshot. found is false when none exists.
func (r *SnapshotRepository) Get(ctx context.Context, sessionID string) (data []byte, found bool, err error) {
	data, err = r.rdb.Get(ctx, config.CacheKey.PracticeProgressKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a snapshot and refreshes its expiry.
func (r *SnapshotRepository) Set(ctx context.Context, sessionID string, data []byte) error {
	return r.rdb.Set(ctx, config.CacheKey.PracticeProgressKey(sessionID), data, r.ttl).Err()
}

// Remove deletes a snapshot.
func (r *SnapshotRepository) Remove(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, config.CacheKey.PracticeProgressKey(sessionID)).Err()
}
