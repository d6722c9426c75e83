package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telemed-routing/internal/config"
)

// ConnectPostgres opens the shared pool sized from cfg and pings it.
func ConnectPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// poolConfig applies the configured limits on top of the DSN. Zero values
// keep the pgxpool defaults.
func poolConfig(cfg config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	if cfg.PgMaxConns > 0 {
		pc.MaxConns = int32(cfg.PgMaxConns)
	}
	if cfg.PgMinConns > 0 {
		pc.MinConns = int32(cfg.PgMinConns)
	}
	if cfg.PgConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.PgConnLifetime
	}
	if cfg.PgConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.PgConnIdleTime
	}
	pc.HealthCheckPeriod = 30 * time.Second
	return pc, nil
}
