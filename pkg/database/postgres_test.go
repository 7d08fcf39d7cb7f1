package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/richxcame/rental-insights/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "reports",
		Password: "secret",
		DBName:   "rentals",
		SSLMode:  "disable",
		MaxConns: 12,
		MinConns: 2,
	}

	pc, err := PoolConfig(cfg, "stats-service")
	require.NoError(t, err)

	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "rentals", pc.ConnConfig.Database)
	assert.Equal(t, pgx.QueryExecModeCacheStatement, pc.ConnConfig.DefaultQueryExecMode)

	params := pc.ConnConfig.RuntimeParams
	assert.Equal(t, "stats-service", params["application_name"])
	assert.Equal(t, "UTC", params["timezone"])
	assert.Equal(t, "on", params["default_transaction_read_only"])
	assert.Equal(t, "30s", params["statement_timeout"])
}

func TestPoolConfig_RejectsBadPort(t *testing.T) {
	_, err := PoolConfig(&config.DatabaseConfig{Host: "h", Port: "not-a-port", SSLMode: "disable"}, "x")
	assert.Error(t, err)
}
