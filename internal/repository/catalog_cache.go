package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/model"
)

// CatalogCache keeps the encoded question catalogue in Redis next to a
// version counter that every mutation bumps.
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached catalogue, or nil when it is missing or older than the
// current version.
func (c *CatalogCache) Get(ctx context.Context) (*model.Catalog, error) {
	pipe := c.rdb.Pipeline()
	dataCmd := pipe.Get(ctx, config.CacheKey.CatalogQuestions)
	versionCmd := pipe.Get(ctx, config.CacheKey.CatalogVersion)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read catalog cache: %w", err)
	}

	data, err := dataCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var catalog model.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, nil
	}

	version, err := parseVersion(versionCmd)
	if err != nil {
		return nil, err
	}
	if catalog.Version != version {
		return nil, nil
	}
	return &catalog, nil
}

// Version returns the current catalogue version. A missing counter is version 0.
func (c *CatalogCache) Version(ctx context.Context) (int64, error) {
	return parseVersion(c.rdb.Get(ctx, config.CacheKey.CatalogVersion))
}

// Set stores the catalogue.
func (c *CatalogCache) Set(ctx context.Context, catalog *model.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.CatalogQuestions, data, c.ttl).Err()
}

// Invalidate drops the cached catalogue and bumps the version.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.CatalogQuestions)
	pipe.Incr(ctx, config.CacheKey.CatalogVersion)
	_, err := pipe.Exec(ctx)
	return err
}

func parseVersion(cmd *redis.StringCmd) (int64, error) {
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse catalog version %q: %w", raw, err)
	}
	return v, nil
}
