package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/rental-insights/pkg/config"
)

const (
	connectTimeout = 10 * time.Second
	// reportStatementTimeout bounds a single window query.
	reportStatementTimeout = "30s"
	// reportWorkMem lets the booking window sort and join in memory.
	reportWorkMem = "32MB"
)

// PoolConfig builds the pool settings for report queries. Sessions are UTC
// and read-only.
func PoolConfig(cfg *config.DatabaseConfig, applicationName string) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	cc := pc.ConnConfig
	cc.ConnectTimeout = connectTimeout
	cc.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cc.RuntimeParams["application_name"] = applicationName
	cc.RuntimeParams["timezone"] = "UTC"
	cc.RuntimeParams["default_transaction_read_only"] = "on"
	cc.RuntimeParams["statement_timeout"] = reportStatementTimeout
	cc.RuntimeParams["work_mem"] = reportWorkMem

	return pc, nil
}

// NewPostgresPool opens the pool and pings it once.
func NewPostgresPool(cfg *config.DatabaseConfig, applicationName string) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(cfg, applicationName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
