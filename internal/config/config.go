// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// DefaultEndpoint is the public RPC used when nothing else is configured.
const DefaultEndpoint = "https://eth.llamarpc.com"

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Explorer  ExplorerConfig  `mapstructure:"explorer"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogDir      string `mapstructure:"log_dir"`
}

// EthereumConfig holds node access settings.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExplorerConfig holds the Etherscan-compatible API settings.
// An empty APIKey disables every explorer-backed field.
type ExplorerConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Enabled reports whether explorer calls can be made.
func (c ExplorerConfig) Enabled() bool {
	return c.APIKey != ""
}

// DashboardConfig tunes the fetch orchestrator and the TUI.
type DashboardConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	FollowHead   bool          `mapstructure:"follow_head"`
	// InitialRows overrides the height-derived list length when > 0.
	InitialRows int `mapstructure:"initial_rows"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BLOCKTERM")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
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
	v.BindEnv("app.log_level", "BLOCKTERM_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_dir", "BLOCKTERM_LOG_DIR")
	v.BindEnv("app.environment", "BLOCKTERM_ENVIRONMENT", "ENVIRONMENT")

	v.BindEnv("ethereum.http_url", "BLOCKTERM_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.websocket_url", "BLOCKTERM_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.chain_id", "BLOCKTERM_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	v.BindEnv("explorer.api_key", "BLOCKTERM_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY")
	v.BindEnv("explorer.base_url", "BLOCKTERM_ETHERSCAN_URL")

	v.BindEnv("dashboard.follow_head", "BLOCKTERM_FOLLOW_HEAD")

	v.BindEnv("telemetry.enabled", "BLOCKTERM_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "BLOCKTERM_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "BLOCKTERM_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "BLOCKTERM_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blockterm")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_dir", "logs")

	v.SetDefault("ethereum.http_url", DefaultEndpoint)
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.request_timeout", "15s")

	v.SetDefault("explorer.base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer.requests_per_second", 5)
	v.SetDefault("explorer.timeout", "10s")
	v.SetDefault("explorer.cache_ttl", "10m")

	v.SetDefault("dashboard.batch_size", 60)
	v.SetDefault("dashboard.tick_interval", "250ms")
	v.SetDefault("dashboard.follow_head", false)
	v.SetDefault("dashboard.initial_rows", 0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "blockterm")
	v.SetDefault("telemetry.trace_provider", "none")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if _, err := url.ParseRequestURI(c.Ethereum.HTTPURL); err != nil {
		return fmt.Errorf("invalid ethereum.http_url: %w", err)
	}
	if c.Dashboard.FollowHead && c.Ethereum.WebSocketURL == "" {
		return fmt.Errorf("dashboard.follow_head requires ethereum.websocket_url")
	}
	if c.Dashboard.BatchSize <= 0 {
		return fmt.Errorf("dashboard.batch_size must be positive, got %d", c.Dashboard.BatchSize)
	}
	if c.Dashboard.TickInterval <= 0 {
		return fmt.Errorf("dashboard.tick_interval must be positive")
	}
	if c.Ethereum.RequestTimeout <= 0 {
		return fmt.Errorf("ethereum.request_timeout must be positive")
	}
	if c.Explorer.Enabled() && c.Explorer.BaseURL == "" {
		return fmt.Errorf("explorer.base_url is required when an api key is set")
	}
	return nil
}
