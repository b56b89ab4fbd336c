package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models taskdeck.yml.
type Config struct {
	Storage  Storage  `yaml:"storage" mapstructure:"storage"`
	Timeline Timeline `yaml:"timeline" mapstructure:"timeline"`
	AI       AI       `yaml:"ai" mapstructure:"ai"`
	Server   Server   `yaml:"server" mapstructure:"server"`
	Log      Log      `yaml:"log" mapstructure:"log"`
}

type Storage struct {
	// Driver is one of sqlite, postgres, redis or memory.
	Driver    string `yaml:"driver" mapstructure:"driver"`
	DSN       string `yaml:"dsn" mapstructure:"dsn"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

type Timeline struct {
	DayWidth     float64 `yaml:"day_width" mapstructure:"day_width"`
	RowHeight    float64 `yaml:"row_height" mapstructure:"row_height"`
	HeaderHeight float64 `yaml:"header_height" mapstructure:"header_height"`
	EmptyHeight  float64 `yaml:"empty_height" mapstructure:"empty_height"`
	Gap          float64 `yaml:"gap" mapstructure:"gap"`
}

type AI struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Breaker     Breaker       `yaml:"breaker" mapstructure:"breaker"`
}

// Breaker tunes the circuit breaker around generative calls.
type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures" mapstructure:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

type Server struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Default returns the configuration used when taskdeck.yml is absent.
func Default() *Config {
	return &Config{
		Storage: Storage{Driver: DriverSQLite, KeyPrefix: "taskdeck_"},
		Timeline: Timeline{
			DayWidth:     48,
			RowHeight:    52,
			HeaderHeight: 60,
			EmptyHeight:  100,
			Gap:          4,
		},
		AI: AI{
			BaseURL:     "https://generativelanguage.googleapis.com",
			Model:       "gemini-2.0-flash",
			Timeout:     60 * time.Second,
			Concurrency: 1,
			Breaker:     Breaker{MaxFailures: 5, OpenTimeout: 30 * time.Second},
		},
		Server: Server{Addr: "127.0.0.1:8080"},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres, DriverRedis:
		if c.Storage.DSN == "" {
			return fmt.Errorf("config.storage.dsn is required for driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("config.storage.driver must be one of sqlite, postgres, redis, memory")
	}
	if c.Timeline.DayWidth <= 0 {
		return fmt.Errorf("config.timeline.day_width must be positive")
	}
	if c.Timeline.RowHeight < 0 || c.Timeline.HeaderHeight < 0 ||
		c.Timeline.EmptyHeight < 0 || c.Timeline.Gap < 0 {
		return fmt.Errorf("config.timeline sizes must not be negative")
	}
	if c.AI.Concurrency < 1 {
		return fmt.Errorf("config.ai.concurrency must be at least 1")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("config.ai.model is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be debug, info, warn or error")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskdeck.yml")
}

// Load reads taskdeck.yml from workspace, falling back to defaults when the
// file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Missing fields
// keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// YAML renders the config the way it is written to disk.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
