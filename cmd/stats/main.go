package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/rental-insights/internal/stats"
	"github.com/richxcame/rental-insights/pkg/cache"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/richxcame/rental-insights/pkg/config"
	"github.com/richxcame/rental-insights/pkg/database"
	"github.com/richxcame/rental-insights/pkg/errors"
	"github.com/richxcame/rental-insights/pkg/eventbus"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/richxcame/rental-insights/pkg/middleware"
	redisclient "github.com/richxcame/rental-insights/pkg/redis"
	"github.com/richxcame/rental-insights/pkg/resilience"
	"github.com/richxcame/rental-insights/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = "stats-service"
	version     = "1.0.0"
)

func main() {
	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8095")
	}
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := logger.Init(cfg.Server.Environment, serviceName); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting stats service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	if err := errors.InitSentry(errors.ConfigFromApp(cfg, version)); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRate:     cfg.Tracing.SampleRate,
			Enabled:        true,
		}, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to database")

	var source stats.RecordSource = stats.NewPostgresSource(db)
	if cfg.Resilience.CircuitBreaker.Enabled {
		breaker := resilience.NewCircuitBreaker(
			resilience.SettingsFromConfig("stats-records", cfg.Resilience.CircuitBreaker),
			stats.RecordSourceFallback,
		)
		source = stats.NewResilientSource(source, breaker, resilience.DefaultRetryConfig())
		logger.Info("Record source circuit breaker enabled")
	}

	service := stats.NewService(source, cfg.Reports.TopLimit)
	var reports stats.ReportBuilder = service

	healthChecks := map[string]common.HealthCheckFunc{
		"database": db.Ping,
	}

	if ttl := cfg.Reports.CacheTTL(); ttl > 0 {
		redisClient, err := redisclient.NewRedisClient(&cfg.Redis, serviceName)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")

		cached := stats.NewCachedReports(service, cache.NewManager(redisClient), ttl)
		reports = cached
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}

		if cfg.NATS.Enabled {
			bus, err := eventbus.New(eventbus.Config{
				URL:        cfg.NATS.URL,
				Name:       serviceName,
				StreamName: cfg.NATS.StreamName,
			})
			if err != nil {
				logger.Fatal("Failed to connect to NATS", zap.Error(err))
			}
			defer bus.Close()

			if err := stats.NewEventInvalidator(bus, cached).Start(rootCtx); err != nil {
				logger.Fatal("Failed to subscribe to change events", zap.Error(err))
			}
			healthChecks["nats"] = func(context.Context) error {
				if !bus.Connected() {
					return fmt.Errorf("nats disconnected")
				}
				return nil
			}
			logger.Info("Report cache invalidation on change events enabled")
		}
	}

	handler := stats.NewHandler(reports, cfg.Reports.DefaultWindowDays)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(cfg.Reports.RequestTimeout()))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.ErrorHandler())

	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
