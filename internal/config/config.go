// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Curve     CurveConfig     `mapstructure:"curve"`
	Feed      FeedConfig      `mapstructure:"feed"`
	API       APIConfig       `mapstructure:"api"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// CurveConfig selects how the bonding curve is evaluated.
type CurveConfig struct {
	Precision      string `mapstructure:"precision"`       // float64 | decimal
	DecimalDigits  int32  `mapstructure:"decimal_digits"`  // decimal strategy only
	ExpansionSteps int    `mapstructure:"expansion_steps"` // additive growth cap of budget inversion
}

// FeedConfig holds the market snapshot feed settings.
type FeedConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	Markets        []string      `mapstructure:"markets"`
	StaleTimeout   time.Duration `mapstructure:"stale_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// APIConfig holds the quote API server settings.
type APIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Port              int           `mapstructure:"port"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxBins           int           `mapstructure:"max_bins"` // per-request bin list limit
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// JournalConfig holds the quote journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	TraceExporter string `mapstructure:"trace_exporter"` // zipkin | otlp-grpc | otlp-http | console | none
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	OTLPHeaders   string `mapstructure:"otlp_headers"`
	OTLPInsecure  bool   `mapstructure:"otlp_insecure"`
	MetricsOTLP   bool   `mapstructure:"metrics_otlp"` // push metrics over OTLP besides /metrics
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("RANGEBET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "RANGEBET_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "RANGEBET_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "RANGEBET_LOG_LEVEL", "LOG_LEVEL")

	// Curve
	v.BindEnv("curve.precision", "RANGEBET_CURVE_PRECISION")

	// Feed
	v.BindEnv("feed.http_url", "RANGEBET_FEED_HTTP_URL", "FEED_HTTP_URL")
	v.BindEnv("feed.websocket_url", "RANGEBET_FEED_WS_URL", "FEED_WS_URL")
	v.BindEnv("feed.markets", "RANGEBET_MARKETS")

	// API
	v.BindEnv("api.port", "RANGEBET_API_PORT", "PORT")

	// Journal
	v.BindEnv("journal.path", "RANGEBET_JOURNAL_PATH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "RANGEBET_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "RANGEBET_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "RANGEBET_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "RANGEBET_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.trace_exporter", "RANGEBET_TRACE_EXPORTER")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "rangebet")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Curve defaults
	v.SetDefault("curve.precision", "float64")
	v.SetDefault("curve.decimal_digits", 30)
	v.SetDefault("curve.expansion_steps", 64)

	// Feed defaults
	v.SetDefault("feed.http_url", "http://localhost:8899")
	v.SetDefault("feed.markets", []string{"1"})
	v.SetDefault("feed.stale_timeout", "10s")
	v.SetDefault("feed.request_timeout", "5s")
	v.SetDefault("feed.cache_ttl", "2s")
	v.SetDefault("feed.initial_backoff", "1s")
	v.SetDefault("feed.max_backoff", "30s")

	// API defaults
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.requests_per_second", 50)
	v.SetDefault("api.burst", 100)
	v.SetDefault("api.max_bins", 256)
	v.SetDefault("api.shutdown_timeout", "5s")

	// Journal defaults
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "rangebet.db")

	// Health defaults
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "rangebet")
	v.SetDefault("telemetry.trace_exporter", "none")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.metrics_otlp", false)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Curve.Precision) {
	case "", "float64", "decimal":
	default:
		return fmt.Errorf("invalid curve.precision: %q (want float64 or decimal)", c.Curve.Precision)
	}
	if c.Curve.DecimalDigits < 1 || c.Curve.DecimalDigits > 64 {
		return fmt.Errorf("curve.decimal_digits must be between 1 and 64, got %d", c.Curve.DecimalDigits)
	}
	if c.Curve.ExpansionSteps < 1 {
		return fmt.Errorf("curve.expansion_steps must be positive, got %d", c.Curve.ExpansionSteps)
	}
	if c.Feed.HTTPURL == "" && c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.http_url or feed.websocket_url is required")
	}
	if len(c.Feed.Markets) == 0 {
		return fmt.Errorf("feed.markets cannot be empty")
	}
	if c.Feed.StaleTimeout <= 0 {
		return fmt.Errorf("feed.stale_timeout must be positive")
	}
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			return fmt.Errorf("invalid api.port: %d", c.API.Port)
		}
		if c.API.RequestsPerSecond <= 0 {
			return fmt.Errorf("api.requests_per_second must be positive")
		}
		if c.API.MaxBins < 1 {
			return fmt.Errorf("api.max_bins must be positive, got %d", c.API.MaxBins)
		}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	return nil
}
