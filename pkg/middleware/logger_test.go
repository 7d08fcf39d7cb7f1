package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		route  string
		status int
		want   zapcore.Level
	}{
		{"/api/v1/stats/admin", http.StatusOK, zapcore.InfoLevel},
		{"/api/v1/stats/admin", http.StatusForbidden, zapcore.WarnLevel},
		{"/api/v1/stats/admin", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/health/live", http.StatusOK, zapcore.DebugLevel},
		{"/health/ready", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/metrics", http.StatusOK, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, requestLevel(tt.route, tt.status), "%s %d", tt.route, tt.status)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	router := gin.New()
	router.Use(CorrelationID(), RequestLogger("stats-test"))
	router.GET("/api/v1/stats/agency/:agency_id", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats/agency/abc?start_date=2024-01-01", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()

	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/api/v1/stats/agency/:agency_id", fields["route"])
	assert.Equal(t, "start_date=2024-01-01", fields["query"])
	assert.Equal(t, int64(http.StatusForbidden), fields["status"])
	assert.Equal(t, w.Header().Get(CorrelationIDHeader), fields["correlation_id"])
}
