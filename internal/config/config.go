package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Poll     PollConfig     `yaml:"poll"`
	Feed     FeedConfig     `yaml:"feed"`
	Provider ProviderConfig `yaml:"provider"`
	Trade    TradeConfig    `yaml:"trade"`
	HTTP     HTTPConfig     `yaml:"http"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
}

// PollConfig controls the announcement polling loop
type PollConfig struct {
	IntervalSecs int  `yaml:"interval_secs"` // tick interval, minimum 1
	AutoStart    bool `yaml:"auto_start"`    // start polling at boot
}

// Interval returns the tick interval as a duration
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSecs) * time.Second
}

// FeedConfig represents the upstream announcement feed
type FeedConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Type      int     `yaml:"type"`      // feed-specific article type filter
	PageNo    int     `yaml:"page_no"`   // page number
	PageSize  int     `yaml:"page_size"` // articles per page
	RPS       float64 `yaml:"rps"`       // requests per second
	Burst     int     `yaml:"burst"`     // burst capacity
	UserAgent string  `yaml:"user_agent"`
	TimeoutMS int     `yaml:"timeout_ms"`
}

// ProviderConfig represents the text-completion provider
type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // env var holding the API key
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	TimeoutMS   int           `yaml:"timeout_ms"`
	RPS         float64       `yaml:"rps"`
	Burst       int           `yaml:"burst"`
	Workers     int           `yaml:"workers"` // bounded worker slots for completion calls
	Circuit     CircuitConfig `yaml:"circuit"`
}

// APIKey resolves the provider API key from the configured environment variable
func (c ProviderConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// CircuitConfig represents circuit breaker settings for the provider
type CircuitConfig struct {
	MaxRequests      uint32 `yaml:"max_requests"`      // half-open probe allowance
	IntervalSecs     int    `yaml:"interval_secs"`     // closed-state count reset window
	TimeoutSecs      int    `yaml:"timeout_secs"`      // open-state cool-off
	FailureThreshold uint32 `yaml:"failure_threshold"` // consecutive failures to open
}

// Interval returns the closed-state reset window as a duration
func (c CircuitConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// Timeout returns the open-state cool-off as a duration
func (c CircuitConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TradeConfig represents trade-decision policy
type TradeConfig struct {
	SupportedExchanges   []string `yaml:"supported_exchanges"`
	SupportedStableCoins []string `yaml:"supported_stable_coins"`
	RiskThreshold        float64  `yaml:"risk_threshold"` // execute when score is below this
}

// HTTPConfig represents the control-surface server
type HTTPConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
}

// ReadTimeout returns the server read timeout as a duration
func (h HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the server write timeout as a duration
func (h HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeoutSecs) * time.Second
}

// IdleTimeout returns the server idle timeout as a duration
func (h HTTPConfig) IdleTimeout() time.Duration {
	return time.Duration(h.IdleTimeoutSecs) * time.Second
}

// CacheConfig represents the announcement dedup cache
type CacheConfig struct {
	RedisAddr   string `yaml:"redis_addr"`    // empty = in-process cache
	SeenTTLSecs int    `yaml:"seen_ttl_secs"` // how long an article id stays deduped
}

// SeenTTL returns the dedup TTL as a duration
func (c CacheConfig) SeenTTL() time.Duration {
	return time.Duration(c.SeenTTLSecs) * time.Second
}

// DatabaseConfig represents the Postgres connection settings
type DatabaseConfig struct {
	Enabled             bool   `yaml:"enabled"`
	DSN                 string `yaml:"dsn"`
	MaxOpenConns        int    `yaml:"max_open_conns"`
	MaxIdleConns        int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMins int    `yaml:"conn_max_lifetime_mins"`
	ConnMaxIdleTimeMins int    `yaml:"conn_max_idle_time_mins"`
	QueryTimeoutSecs    int    `yaml:"query_timeout_secs"`
}

// ConnMaxLifetime returns the connection lifetime as a duration
func (d DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetimeMins) * time.Minute
}

// ConnMaxIdleTime returns the idle connection lifetime as a duration
func (d DatabaseConfig) ConnMaxIdleTime() time.Duration {
	return time.Duration(d.ConnMaxIdleTimeMins) * time.Minute
}

// QueryTimeout returns the per-query timeout as a duration
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSecs) * time.Second
}

// Load reads and validates configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration defaults applied before file values
func Default() *Config {
	return &Config{
		Poll: PollConfig{
			IntervalSecs: 60,
		},
		Feed: FeedConfig{
			Type:      1,
			PageNo:    1,
			PageSize:  10,
			RPS:       1,
			Burst:     1,
			UserAgent: "coinsniper/1.0",
			TimeoutMS: 10000,
		},
		Provider: ProviderConfig{
			APIKeyEnv:   "COMPLETION_API_KEY",
			Model:       "gpt-3.5-turbo-instruct",
			MaxTokens:   256,
			Temperature: 0.2,
			TimeoutMS:   30000,
			RPS:         2,
			Burst:       2,
			Workers:     4,
			Circuit: CircuitConfig{
				MaxRequests:      2,
				IntervalSecs:     60,
				TimeoutSecs:      30,
				FailureThreshold: 5,
			},
		},
		Trade: TradeConfig{
			RiskThreshold: 5.0,
		},
		HTTP: HTTPConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSecs:  10,
			WriteTimeoutSecs: 10,
			IdleTimeoutSecs:  60,
		},
		Cache: CacheConfig{
			SeenTTLSecs: 86400,
		},
		Database: DatabaseConfig{
			MaxOpenConns:        10,
			MaxIdleConns:        5,
			ConnMaxLifetimeMins: 30,
			ConnMaxIdleTimeMins: 5,
			QueryTimeoutSecs:    30,
		},
	}
}

// Validate ensures the configuration is valid and consistent
func (c *Config) Validate() error {
	if c.Poll.IntervalSecs < 1 {
		return fmt.Errorf("poll interval_secs must be at least 1, got %d", c.Poll.IntervalSecs)
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed base_url cannot be empty")
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed page_size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Feed.RPS <= 0 {
		return fmt.Errorf("feed rps must be positive, got %f", c.Feed.RPS)
	}
	if c.Feed.Burst < 1 {
		// A zero burst makes every limiter wait fail outright.
		return fmt.Errorf("feed burst must be at least 1, got %d", c.Feed.Burst)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url cannot be empty")
	}
	if c.Provider.RPS <= 0 {
		return fmt.Errorf("provider rps must be positive, got %f", c.Provider.RPS)
	}
	if c.Provider.Burst < 1 {
		return fmt.Errorf("provider burst must be at least 1, got %d", c.Provider.Burst)
	}
	if c.Provider.Workers <= 0 {
		return fmt.Errorf("provider workers must be positive, got %d", c.Provider.Workers)
	}
	if c.Trade.RiskThreshold <= 0 {
		return fmt.Errorf("trade risk_threshold must be positive, got %f", c.Trade.RiskThreshold)
	}
	if len(c.Trade.SupportedExchanges) == 0 {
		return fmt.Errorf("trade supported_exchanges cannot be empty")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required when database is enabled")
	}
	return nil
}
