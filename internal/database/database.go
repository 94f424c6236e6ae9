package database

import (
	"context"
	"fmt"
	"time"

	"seven-oz-loyalty/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// defaultConnectTimeout bounds dialing and the startup ping when the config leaves it unset.
const defaultConnectTimeout = 5 * time.Second

// NewPool opens the pgx pool backing the postgres card store and pings it
// once within the configured connect timeout.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Str("application_name", cfg.ApplicationName).
		Int("max_connections", cfg.MaxConnections).
		Dur("connect_timeout", poolConfig.ConnConfig.ConnectTimeout).
		Msg("opening card store pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, poolConfig.ConnConfig.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s at %s:%d: %w", cfg.Database, cfg.Host, cfg.Port, err)
	}

	logger.Info().Str("database", cfg.Database).Msg("card store pool ready")
	return pool, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	if poolConfig.ConnConfig.ConnectTimeout <= 0 {
		poolConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ApplicationName != "" {
		// Shows up in pg_stat_activity next to each stamp card query.
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	return poolConfig, nil
}
