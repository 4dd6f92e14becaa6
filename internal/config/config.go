package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	API      APIConfig
	Cache    CacheConfig
	Session  SessionConfig
	Observe  ObserveConfig
	Prefetch PrefetchConfig
}

type APIConfig struct {
	// BaseURL is the root of the LMS backend, e.g. https://lms.example.edu/api.
	BaseURL string `env:"API_BASE_URL, required"`

	TimeoutSeconds  int `env:"API_TIMEOUT_SECS, default=30"`
	MaxIdleConns    int `env:"API_MAX_IDLE_CONNS, default=100"`
	MaxConnsPerHost int `env:"API_MAX_CONNS_PER_HOST, default=20"`
}

// CacheConfig tunes the query cache fetch policy.
type CacheConfig struct {
	// StaleTimeSeconds is how long cached data is served without a network call.
	StaleTimeSeconds int `env:"CACHE_STALE_TIME_SECS, default=300"`

	// GCTimeSeconds evicts entries unused for this long.
	GCTimeSeconds int `env:"CACHE_GC_TIME_SECS, default=600"`

	// MaxRetries bounds retries for transient failures. Client errors are
	// never retried regardless of this setting.
	MaxRetries int `env:"CACHE_MAX_RETRIES, default=3"`

	MaxEntries int `env:"CACHE_MAX_ENTRIES, default=10000"`
}

type SessionConfig struct {
	// FilePath is where the bearer token and cached profile persist between
	// runs. Empty selects an in-memory session.
	FilePath string `env:"SESSION_FILE"`
}

type ObserveConfig struct {
	Enabled                   bool   `env:"OBSERVE_ENABLED, default=false"`
	Type                      string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName               string `env:"OBSERVE_SERVICE_NAME, default=campusql-client"`
	TraceBatchTimeoutSeconds  int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled      bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
}

// PrefetchConfig drives the warm-up run performed by the binary.
type PrefetchConfig struct {
	Role   string `env:"PREFETCH_ROLE, default=admin"`
	UserID string `env:"PREFETCH_USER_ID"`

	// Login credentials for establishing a session when none is stored.
	Email    string `env:"LOGIN_EMAIL"`
	Password string `env:"LOGIN_PASSWORD"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup,
	})
	if err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL")
	}

	if c.Cache.StaleTimeSeconds > c.Cache.GCTimeSeconds {
		return fmt.Errorf("CACHE_STALE_TIME_SECS must not exceed CACHE_GC_TIME_SECS")
	}

	if c.Observe.Enabled && c.Observe.Type != "grpc" && c.Observe.Type != "stdout" {
		return fmt.Errorf("OBSERVE_TYPE must be either %q or %q", "grpc", "stdout")
	}

	return nil
}
