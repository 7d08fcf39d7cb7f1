package common

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus represents the status of a single health check
type CheckStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// HealthCheckFunc probes one dependency
type HealthCheckFunc func(ctx context.Context) error

var startTime = time.Now()

// LivenessProbe returns a simple liveness check
func LivenessProbe(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "alive",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
		})
	}
}

const readinessTimeout = 3 * time.Second

// ReadinessProbe runs every dependency check concurrently and answers 503
// if any of them fails. Each check sees the same deadline.
func ReadinessProbe(serviceName, version string, checks map[string]HealthCheckFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			results = make(map[string]CheckStatus, len(checks))
			g       errgroup.Group
		)
		for name, check := range checks {
			g.Go(func() error {
				began := time.Now()
				err := check(ctx)

				status := CheckStatus{Status: "healthy", Duration: time.Since(began).String()}
				if err != nil {
					status.Status, status.Message = "unhealthy", err.Error()
				}

				mu.Lock()
				results[name] = status
				mu.Unlock()
				return err
			})
		}

		status, code := "ready", http.StatusOK
		if err := g.Wait(); err != nil {
			status, code = "not ready", http.StatusServiceUnavailable
		}

		c.JSON(code, HealthResponse{
			Status:    status,
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Checks:    results,
		})
	}
}
