package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/config"
)

const (
	pgConnectTimeout    = 5 * time.Second
	pgMaxConnIdleTime   = 5 * time.Minute
	pgMaxConnLifetime   = time.Hour
	pgHealthCheckPeriod = 30 * time.Second
)

// NewPostgresPool opens the pool and pings it once so a bad DATABASE_URL fails
// at startup rather than on the first request.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MinConns = minConns(cfg.MaxDBConns)
	poolCfg.MaxConnIdleTime = pgMaxConnIdleTime
	poolCfg.MaxConnLifetime = pgMaxConnLifetime
	poolCfg.HealthCheckPeriod = pgHealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = pgConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pgConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Msg("PostgreSQL connected")

	return pool, nil
}

// minConns keeps a quarter of the pool warm.
func minConns(max int32) int32 {
	if max < 4 {
		return 1
	}
	return max / 4
}
