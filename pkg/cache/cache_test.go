package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	redisclient "github.com/richxcame/rental-insights/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedReport struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(redisclient.NewFromClient(client)), mr
}

func TestManager_SetAndGet(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", cachedReport{Name: "a", Total: 12.5}, time.Minute))

	var got cachedReport
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, cachedReport{Name: "a", Total: 12.5}, got)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestManager_Get_MissIsRedisNil(t *testing.T) {
	m, _ := newTestManager(t)

	var got cachedReport
	err := m.Get(context.Background(), "missing", &got)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestManager_Get_Expired(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", cachedReport{Name: "a"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got cachedReport
	assert.ErrorIs(t, m.Get(ctx, "k", &got), redis.Nil)
}

func TestManager_Set_Unmarshalable(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestManager_SetAsync(t *testing.T) {
	m, mr := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	m.SetAsync(ctx, "k", cachedReport{Name: "async"}, time.Minute)
	cancel() // the write must not depend on the caller's context

	assert.Eventually(t, func() bool { return mr.Exists("k") }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_Invalidate(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	for _, key := range []string{
		Keys.AgencyReport("a1", start, end),
		Keys.AgencyReport("a1", start, start),
		Keys.AgencyReport("a2", start, end),
		Keys.AdminReport(start, end),
	} {
		require.NoError(t, mr.Set(key, "{}"))
	}

	n, err := m.Invalidate(ctx, Keys.AgencyReports("a1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists(Keys.AgencyReport("a1", start, end)))
	assert.True(t, mr.Exists(Keys.AgencyReport("a2", start, end)))

	n, err = m.Invalidate(ctx, Keys.AdminReports())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.Invalidate(ctx, Keys.AdminReports())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestKeys(t *testing.T) {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, "stats:agency:abc:20240305:20240401", Keys.AgencyReport("abc", start, end))
	assert.Equal(t, "stats:admin:20240305:20240401", Keys.AdminReport(start, end))
	assert.Equal(t, "stats:agency:abc:*", Keys.AgencyReports("abc"))
	assert.Equal(t, "stats:admin:*", Keys.AdminReports())
}

func TestKeys_NormalizeToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	start := time.Date(2024, 3, 5, 1, 0, 0, 0, loc) // 2024-03-04 22:00 UTC

	assert.Equal(t, "stats:admin:20240304:20240304", Keys.AdminReport(start, start))
}

func TestTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, TTL.Short())
}
