package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/rental-insights/pkg/async"
	"github.com/richxcame/rental-insights/pkg/logger"
	redisclient "github.com/richxcame/rental-insights/pkg/redis"
	"github.com/richxcame/rental-insights/pkg/tracing"
	"go.uber.org/zap"
)

const (
	writeTimeout = 5 * time.Second
	tracerName   = "report-cache"
)

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis *redisclient.Client
}

// NewManager creates a new cache manager
func NewManager(redis *redisclient.Client) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result. A missing key
// is reported as redis.Nil.
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	var data string
	err := tracing.TraceRedisCommand(ctx, tracerName, "get", key, func(ctx context.Context) error {
		var err error
		data, err = m.redis.GetString(ctx, key)
		return err
	})
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return tracing.TraceRedisCommand(ctx, tracerName, "set", key, func(ctx context.Context) error {
		return m.redis.RetryableSet(ctx, key, string(data), ttl)
	})
}

// SetAsync caches value in the background. Failures are logged and dropped.
func (m *Manager) SetAsync(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	async.GoWithTimeout(ctx, "cache-write", writeTimeout, func(ctx context.Context) {
		if err := m.Set(ctx, key, value, ttl); err != nil {
			logger.WarnContext(ctx, "failed to cache value", zap.String("key", key), zap.Error(err))
		}
	})
}

// Invalidate removes keys matching a pattern and returns how many were removed
func (m *Manager) Invalidate(ctx context.Context, pattern string) (int, error) {
	var keys []string
	err := tracing.TraceRedisCommand(ctx, tracerName, "scan", pattern, func(ctx context.Context) error {
		var err error
		keys, err = m.redis.ScanKeys(ctx, pattern, 100)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := m.redis.RetryableDelete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to delete keys: %w", err)
	}
	return len(keys), nil
}

// CacheKeys defines report cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

const (
	statsPrefix = "stats"
	dayLayout   = "20060102"
)

func window(start, end time.Time) string {
	return start.UTC().Format(dayLayout) + ":" + end.UTC().Format(dayLayout)
}

// AgencyReport returns the cache key of one agency report
func (k CacheKeys) AgencyReport(agencyID string, start, end time.Time) string {
	return strings.Join([]string{statsPrefix, "agency", agencyID, window(start, end)}, ":")
}

// AdminReport returns the cache key of a platform report
func (k CacheKeys) AdminReport(start, end time.Time) string {
	return strings.Join([]string{statsPrefix, "admin", window(start, end)}, ":")
}

// AgencyReports matches every cached report of one agency
func (k CacheKeys) AgencyReports(agencyID string) string {
	return fmt.Sprintf("%s:agency:%s:*", statsPrefix, agencyID)
}

// AdminReports matches every cached platform report
func (k CacheKeys) AdminReports() string {
	return statsPrefix + ":admin:*"
}

// CacheTTL names report cache lifetimes.
type CacheTTL struct{}

var TTL = CacheTTL{}

// Short is the default lifetime of a cached report.
func (t CacheTTL) Short() time.Duration { return 5 * time.Minute }
