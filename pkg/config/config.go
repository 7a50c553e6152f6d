package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"MacroPull/internal/domain/models"
	applogger "MacroPull/pkg/logger"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Log         applogger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		// Initialize fits are CPU bound; cap requests per second per client.
		FitRateLimit float64 `yaml:"fit_rate_limit" default:"2"`
		FitBurst     int     `yaml:"fit_burst" default:"4"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Source struct {
		Type   string `yaml:"type" default:"fred"` // fred or csv
		CSVDir string `yaml:"csv_dir" default:"data"`
	} `yaml:"source"`
	FRED struct {
		APIKey    string        `yaml:"api_key"`
		BaseURL   string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
		Timeout   time.Duration `yaml:"timeout" default:"15s"`
		RateLimit float64       `yaml:"rate_limit" default:"2"` // requests per second
		Burst     int           `yaml:"burst" default:"1"`
		Start     string        `yaml:"observation_start"` // YYYY-MM-DD, empty for full history
	} `yaml:"fred"`
	// Catalog lists the series the loader pulls, with default alert thresholds.
	Catalog  []models.SeriesInfo `yaml:"catalog"`
	Pipeline struct {
		Frequency        string `yaml:"frequency" default:"B"`
		DefaultFrequency string `yaml:"default_frequency" default:"B"`
		MaxLags          int    `yaml:"max_lags" default:"5"`
		Steps            int    `yaml:"steps" default:"10"`
	} `yaml:"pipeline"`
	Loader struct {
		Schedule  string        `yaml:"schedule" default:"0 */6 * * *"`
		OnStartup bool          `yaml:"on_startup" default:"true"`
		Timeout   time.Duration `yaml:"timeout" default:"5m"`
		Archive   bool          `yaml:"archive" default:"false"` // write-through + fallback via ClickHouse
		Lookback  time.Duration `yaml:"lookback" default:"87600h"`
	} `yaml:"loader"`
	Alerts struct {
		BufferSize int           `yaml:"buffer_size" default:"256"`
		Cooldown   time.Duration `yaml:"cooldown" default:"1h"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		Websocket  bool          `yaml:"websocket" default:"true"`
		Kafka      struct {
			Enabled      bool          `yaml:"enabled" default:"false"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"macro.alerts"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"snappy"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"kafka"`
	} `yaml:"alerts"`
	Store struct {
		Backend     string        `yaml:"backend" default:"memory"` // memory, redis or layered
		ForecastTTL time.Duration `yaml:"forecast_ttl" default:"24h"`
		Redis       struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" default:"0"`
			Prefix   string `yaml:"prefix" default:"macropull"`
		} `yaml:"redis"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"macro"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Volatility struct {
		ServiceURL string        `yaml:"service_url" default:"http://localhost:8000"`
		Timeout    time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"volatility"`
}

// DefaultCatalog is used when the config file lists no series.
func DefaultCatalog() []models.SeriesInfo {
	return []models.SeriesInfo{
		{ID: "BAMLH0A0HYM2", Name: "ICE BofA US High Yield OAS", Threshold: 2.0},
		{ID: "BAMLC0A0CM", Name: "ICE BofA US Corporate OAS", Threshold: 2.0},
		{ID: "DGS10", Name: "10-Year Treasury Yield", Threshold: 2.5},
		{ID: "DGS2", Name: "2-Year Treasury Yield", Threshold: 2.5},
		{ID: "T10Y2Y", Name: "10Y-2Y Treasury Spread", Threshold: 2.5},
		{ID: "SP500", Name: "S&P 500", Threshold: 3.0},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Catalog) == 0 {
		c.Catalog = DefaultCatalog()
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FRED_API_KEY"); v != "" {
		c.FRED.APIKey = v
	}
	if v := getenv("DATA_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Alerts.Kafka.Brokers = strings.Split(v, ",")
		c.Alerts.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
		if c.Store.Backend == "memory" {
			c.Store.Backend = "redis"
		}
	}
	if v := getenv("VOLATILITY_SERVICE_URL"); v != "" {
		c.Volatility.ServiceURL = v
	}
}

// SeriesIDs returns catalog identifiers in configured order.
func (c *Config) SeriesIDs() []string {
	ids := make([]string, len(c.Catalog))
	for i, s := range c.Catalog {
		ids[i] = s.ID
	}
	return ids
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Source.Type {
	case "fred":
		// FRED rejects anonymous requests but an empty key is allowed at startup
		// so the service can come up with an archive or an empty panel.
	case "csv":
		if c.Source.CSVDir == "" {
			return fmt.Errorf("source.csv_dir is required for csv source")
		}
	default:
		return fmt.Errorf("source.type must be 'fred' or 'csv', got '%s'", c.Source.Type)
	}
	if !models.IsValidFrequency(models.Frequency(c.Pipeline.Frequency)) {
		return fmt.Errorf("pipeline.frequency '%s' is not supported", c.Pipeline.Frequency)
	}
	if !models.IsValidFrequency(models.Frequency(c.Pipeline.DefaultFrequency)) {
		return fmt.Errorf("pipeline.default_frequency '%s' is not supported", c.Pipeline.DefaultFrequency)
	}
	if c.Pipeline.MaxLags < 1 {
		return fmt.Errorf("pipeline.max_lags must be >= 1")
	}
	seen := make(map[string]struct{}, len(c.Catalog))
	for _, s := range c.Catalog {
		if s.ID == "" {
			return fmt.Errorf("catalog entries need an id")
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("catalog id '%s' is duplicated", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Threshold < 0 {
			return fmt.Errorf("catalog threshold for '%s' must be non-negative", s.ID)
		}
	}
	switch c.Store.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("store.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Store.Backend)
	}
	if c.Alerts.BufferSize < 1 {
		return fmt.Errorf("alerts.buffer_size must be >= 1")
	}
	if c.Alerts.Kafka.Enabled && len(c.Alerts.Kafka.Brokers) == 0 {
		return fmt.Errorf("alerts.kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
