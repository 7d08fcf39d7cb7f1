package stats

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/rental-insights/pkg/cache"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/richxcame/rental-insights/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// CachedReports serves reports from Redis and falls through to the wrapped
// builder on a miss. A broken cache never fails a report.
type CachedReports struct {
	next  ReportBuilder
	cache *cache.Manager
	ttl   time.Duration

	// generation moves on every invalidation. A report built across a move
	// may predate the change and is returned uncached.
	generation atomic.Uint64
}

// NewCachedReports wraps next with a report cache. A non-positive ttl uses
// the short cache TTL.
func NewCachedReports(next ReportBuilder, manager *cache.Manager, ttl time.Duration) *CachedReports {
	if ttl <= 0 {
		ttl = cache.TTL.Short()
	}
	return &CachedReports{next: next, cache: manager, ttl: ttl}
}

// BuildAgencyReport returns the cached agency report or builds and caches it
func (c *CachedReports) BuildAgencyReport(ctx context.Context, agencyID uuid.UUID, start, end time.Time) (*AgencyReport, error) {
	key := cache.Keys.AgencyReport(agencyID.String(), start, end)

	var cached AgencyReport
	if c.lookup(ctx, kindAgency, key, &cached) {
		return &cached, nil
	}

	gen := c.generation.Load()
	report, err := c.next.BuildAgencyReport(ctx, agencyID, start, end)
	if err != nil {
		return nil, err
	}
	c.store(ctx, gen, key, report)
	return report, nil
}

// BuildAdminReport returns the cached platform report or builds and caches it
func (c *CachedReports) BuildAdminReport(ctx context.Context, start, end time.Time) (*AdminReport, error) {
	key := cache.Keys.AdminReport(start, end)

	var cached AdminReport
	if c.lookup(ctx, kindAdmin, key, &cached) {
		return &cached, nil
	}

	gen := c.generation.Load()
	report, err := c.next.BuildAdminReport(ctx, start, end)
	if err != nil {
		return nil, err
	}
	c.store(ctx, gen, key, report)
	return report, nil
}

func (c *CachedReports) store(ctx context.Context, gen uint64, key string, report interface{}) {
	if c.generation.Load() != gen {
		logger.DebugContext(ctx, "reports invalidated during build, skipping cache write", zap.String("key", key))
		return
	}
	c.cache.SetAsync(ctx, key, report, c.ttl)
}

func (c *CachedReports) lookup(ctx context.Context, kind, key string, dst interface{}) bool {
	err := c.cache.Get(ctx, key, dst)
	result := cacheHit
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		result = cacheMiss
	default:
		result = cacheError
		logger.WarnContext(ctx, "report cache read failed, rebuilding", zap.String("key", key), zap.Error(err))
	}

	reportCacheTotal.WithLabelValues(kind, result).Inc()
	trace.SpanFromContext(ctx).SetAttributes(tracing.CacheResultKey.String(result))
	return result == cacheHit
}

// InvalidateAgency drops every cached report of the agency and every platform
// report, since both include the agency's records.
func (c *CachedReports) InvalidateAgency(ctx context.Context, agencyID uuid.UUID) error {
	c.generation.Add(1)
	n, err := c.cache.Invalidate(ctx, cache.Keys.AgencyReports(agencyID.String()))
	if err != nil {
		return fmt.Errorf("invalidate agency reports: %w", err)
	}
	reportInvalidationsTotal.WithLabelValues(kindAgency).Add(float64(n))

	if err := c.InvalidateAdmin(ctx); err != nil {
		return err
	}

	logger.DebugContext(ctx, "agency reports invalidated",
		zap.String("agency_id", agencyID.String()),
		zap.Int("keys", n),
	)
	return nil
}

// InvalidateAdmin drops every cached platform report
func (c *CachedReports) InvalidateAdmin(ctx context.Context) error {
	c.generation.Add(1)
	n, err := c.cache.Invalidate(ctx, cache.Keys.AdminReports())
	if err != nil {
		return fmt.Errorf("invalidate admin reports: %w", err)
	}
	reportInvalidationsTotal.WithLabelValues(kindAdmin).Add(float64(n))
	return nil
}
