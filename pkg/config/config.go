package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one entry in a provider fallback chain.
// Immutable after load.
type ProviderConfig struct {
	Name       string        `yaml:"name" validate:"required"`
	Priority   int           `yaml:"priority"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
	RateLimit  float64       `yaml:"rate_limit" default:"5"` // requests per second
	Burst      int           `yaml:"burst" default:"1"`
	CacheTTL   time.Duration `yaml:"cache_ttl" default:"5m"`
	Categories []string      `yaml:"categories" validate:"min=1"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Scan struct {
		Interval      time.Duration `yaml:"interval" default:"2m"`
		CycleDeadline time.Duration `yaml:"cycle_deadline" default:"3m"`
		Workers       int           `yaml:"workers" default:"16" validate:"min=1"`
		Category      string        `yaml:"category"` // empty scans every category
	} `yaml:"scan"`
	Scoring struct {
		StandardThreshold float64            `yaml:"standard_threshold" default:"5.0"`
		PriorityThreshold float64            `yaml:"priority_threshold" default:"7.0"`
		SignalTTL         time.Duration      `yaml:"signal_ttl" default:"2h"`
		AlertCooldown     time.Duration      `yaml:"alert_cooldown" default:"2h"`
		Weights           map[string]float64 `yaml:"weights"`
	} `yaml:"scoring"`
	Ledger struct {
		Horizon time.Duration `yaml:"horizon" default:"720h"`
	} `yaml:"ledger"`
	Registry struct {
		InactiveAfter time.Duration `yaml:"inactive_after" default:"168h"`
	} `yaml:"registry"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"swarm"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"swarm"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"swarm.alerts"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
	} `yaml:"kafka"`
	Providers []ProviderConfig `yaml:"providers" validate:"min=1,dive"`
}

// Load reads, defaults, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables for values that are usually injected at deploy time.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	for i := range c.Providers {
		// HELIUS_API_KEY, ETHERSCAN_API_KEY, ...
		envKey := strings.ToUpper(strings.ReplaceAll(c.Providers[i].Name, "-", "_")) + "_API_KEY"
		if v := os.Getenv(envKey); v != "" {
			c.Providers[i].APIKey = v
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Scoring.PriorityThreshold < c.Scoring.StandardThreshold {
		return fmt.Errorf("scoring: priority_threshold (%.2f) must be >= standard_threshold (%.2f)",
			c.Scoring.PriorityThreshold, c.Scoring.StandardThreshold)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka: brokers are required when enabled")
	}
	return nil
}
