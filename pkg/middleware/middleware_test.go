package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("handler that stops on deadline gets 504", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestTimeout(50 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			select {
			case <-c.Request.Context().Done():
			case <-time.After(2 * time.Second):
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			}
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "too long")
	})

	t.Run("fast handler is untouched", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestTimeout(time.Second))
		router.GET("/fast", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "success")
	})

	t.Run("handler deadline is visible", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestTimeout(time.Second))
		var hasDeadline bool
		router.GET("/", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusNoContent)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, hasDeadline)
	})

	t.Run("written response survives an expired deadline", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestTimeout(10 * time.Millisecond))
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusAccepted)
			c.Writer.WriteHeaderNow()
			<-c.Request.Context().Done()
			require.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	known := uuid.NewString()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "generated when absent"},
		{name: "taken from request id", headers: map[string]string{CorrelationIDHeader: known}, want: known},
		{name: "taken from legacy header", headers: map[string]string{LegacyCorrelationIDHeader: known}, want: known},
		{name: "non-uuid replaced", headers: map[string]string{CorrelationIDHeader: "<script>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			router := gin.New()
			router.Use(CorrelationID())
			router.GET("/", func(c *gin.Context) { seen = GetCorrelationID(c) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
			if tt.want != "" {
				assert.Equal(t, tt.want, seen)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		origins string
		origin  string
		allowed bool
	}{
		{name: "listed origin", origins: "https://a.example, https://b.example", origin: "https://b.example", allowed: true},
		{name: "unlisted origin", origins: "https://a.example", origin: "https://evil.example"},
		{name: "wildcard", origins: "*", origin: "https://anything.example", allowed: true},
		{name: "empty falls back to localhost", origins: "", origin: "http://localhost:3000", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.origins))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, http.StatusForbidden, w.Code)
			}
		})
	}
}

func TestMetrics_LabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics("test"))
	router.GET("/known/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/known/1", "/known/2", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), counterValue(t, "test", "/known/:id", "200"))
	assert.Equal(t, float64(1), counterValue(t, "test", "unmatched", "404"))
}

func counterValue(t *testing.T, service, route, status string) float64 {
	t.Helper()
	return testutil.ToFloat64(httpRequestsTotal.WithLabelValues(service, http.MethodGet, route, status))
}
