package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	NATS       NATSConfig
	Tracing    TracingConfig
	Sentry     SentryConfig
	Resilience ResilienceConfig
	Reports    ReportsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	URL        string
	StreamName string
	Enabled    bool
}

// TracingConfig holds OpenTelemetry exporter configuration
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// SentryConfig holds error tracking configuration
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-upstream breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// ReportsConfig tunes report generation
type ReportsConfig struct {
	CacheTTLSeconds      int
	TopLimit             int
	RequestTimeoutSecond int
	DefaultWindowDays    int
}

// placeholderJWTSecret is the development default. Production refuses it.
const placeholderJWTSecret = "your-secret-key-change-in-production"

// Load reads configuration from the environment, after loading a .env file
// when one is present. Out-of-range numbers fall back to their defaults.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Environment:  env("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  env("READ_TIMEOUT", 10),
			WriteTimeout: env("WRITE_TIMEOUT", 30),
			CORSOrigins:  env("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			User:     env("DB_USER", "postgres"),
			Password: env("DB_PASSWORD", "postgres"),
			DBName:   env("DB_NAME", "rentals"),
			SSLMode:  env("DB_SSLMODE", "disable"),
			MaxConns: positive(env("DB_MAX_CONNS", 25), 25),
			MinConns: env("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     env("REDIS_HOST", "localhost"),
			Port:     env("REDIS_PORT", "6379"),
			Password: env("REDIS_PASSWORD", ""),
			DB:       env("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", placeholderJWTSecret),
		},
		NATS: NATSConfig{
			URL:        env("NATS_URL", "nats://localhost:4222"),
			StreamName: env("NATS_STREAM", "RENTALS"),
			Enabled:    env("NATS_ENABLED", false),
		},
		Tracing: TracingConfig{
			Enabled:      env("OTEL_ENABLED", false),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   env("OTEL_TRACE_SAMPLE_RATE", 0.0),
		},
		Sentry: SentryConfig{
			DSN:              env("SENTRY_DSN", ""),
			TracesSampleRate: env("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          env("CB_ENABLED", false),
				FailureThreshold: positive(env("CB_FAILURE_THRESHOLD", 5), 5),
				SuccessThreshold: positive(env("CB_SUCCESS_THRESHOLD", 1), 1),
				TimeoutSeconds:   positive(env("CB_TIMEOUT_SECONDS", 30), 30),
				IntervalSeconds:  positive(env("CB_INTERVAL_SECONDS", 60), 60),
			},
		},
		Reports: ReportsConfig{
			CacheTTLSeconds:      max(env("REPORTS_CACHE_TTL_SECONDS", 300), 0),
			TopLimit:             positive(env("REPORTS_TOP_LIMIT", 5), 5),
			RequestTimeoutSecond: positive(env("REPORTS_REQUEST_TIMEOUT_SECONDS", 20), 20),
			DefaultWindowDays:    positive(env("REPORTS_DEFAULT_WINDOW_DAYS", 30), 30),
		},
	}

	if raw := env("CB_SERVICE_OVERRIDES", ""); raw != "" {
		var overrides map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = overrides
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would start an insecure or unusable service.
func (c *Config) Validate() error {
	if c.Server.Environment == "production" && (c.JWT.Secret == "" || c.JWT.Secret == placeholderJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("OTEL_TRACE_SAMPLE_RATE must be within [0, 1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// SettingsFor returns effective breaker settings for a specific upstream name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CacheTTL is how long a built report stays cached. Zero disables caching.
func (c ReportsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RequestTimeout bounds a single report request
func (c ReportsConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecond) * time.Second
}

// env reads key and parses it as the type of def. Unset or unparsable
// values yield def.
func env[T string | int | float64 | bool](key string, def T) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}

	var (
		parsed interface{}
		err    error
	)
	switch any(def).(type) {
	case string:
		parsed = raw
	case int:
		parsed, err = strconv.Atoi(raw)
	case float64:
		parsed, err = strconv.ParseFloat(raw, 64)
	case bool:
		parsed, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return def
	}
	return parsed.(T)
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
