package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// Backend kinds.
const (
	BackendRedis    = "redis"
	BackendEmbedded = "embedded"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Backend  string         `json:"backend" yaml:"backend"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Embedded EmbeddedConfig `json:"embedded" yaml:"embedded"`
	Stream   StreamConfig   `json:"stream" yaml:"stream"`
	Consume  ConsumeConfig  `json:"consume" yaml:"consume"`
	Demo     DemoConfig     `json:"demo" yaml:"demo"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	PoolSize int    `json:"poolSize" yaml:"poolSize"`
}

// EmbeddedConfig configures the local Pebble backend.
type EmbeddedConfig struct {
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is always|interval|never.
	Fsync string `json:"fsync" yaml:"fsync"`
}

// StreamConfig names the served stream and its retention.
type StreamConfig struct {
	Name   string `json:"name" yaml:"name"`
	MaxLen int64  `json:"maxLen" yaml:"maxLen"`
}

// ConsumeConfig holds iterator defaults.
type ConsumeConfig struct {
	Count      int   `json:"count" yaml:"count"`
	BlockMs    int64 `json:"blockMs" yaml:"blockMs"`
	MinIdleMs  int64 `json:"minIdleMs" yaml:"minIdleMs"`
	MaxRetries int   `json:"maxRetries" yaml:"maxRetries"`
}

// DemoConfig controls the demo producer and the continuous reader.
type DemoConfig struct {
	Enabled    bool  `json:"enabled" yaml:"enabled"`
	IntervalMs int64 `json:"intervalMs" yaml:"intervalMs"`
	ReadCount  int   `json:"readCount" yaml:"readCount"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LogConfig configures pkg/log.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Backend: BackendRedis,
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Embedded: EmbeddedConfig{
			DataDir: DefaultDataDir(),
			Fsync:   "interval",
		},
		Stream: StreamConfig{
			Name:   "example-stream",
			MaxLen: 100,
		},
		Consume: ConsumeConfig{
			Count:     10,
			BlockMs:   0,
			MinIdleMs: 5000,
		},
		Demo: DemoConfig{
			Enabled:    true,
			IntervalMs: 1000,
			ReadCount:  10,
		},
		HTTP: HTTPConfig{Addr: ":3000"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse json: %w", err)
		}
	}
	return cfg, nil
}

var (
	ErrUnknownBackend = errors.New("config: backend must be redis or embedded")
	ErrMissingStream  = errors.New("config: stream.name is required")
	ErrBadCount       = errors.New("config: consume.count must be positive")
	ErrBadInterval    = errors.New("config: demo.intervalMs must be positive")
)

// Validate checks the fields the server depends on.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: redis.addr is required")
		}
	case BackendEmbedded:
		if c.Embedded.DataDir == "" {
			return errors.New("config: embedded.dataDir is required")
		}
	default:
		return fmt.Errorf("%w, got %q", ErrUnknownBackend, c.Backend)
	}
	if c.Stream.Name == "" {
		return ErrMissingStream
	}
	if c.Consume.Count <= 0 {
		return ErrBadCount
	}
	if c.Demo.Enabled && c.Demo.IntervalMs <= 0 {
		return ErrBadInterval
	}
	return nil
}

// Block returns the consume block window.
func (c ConsumeConfig) Block() time.Duration { return time.Duration(c.BlockMs) * time.Millisecond }

// MinIdle returns the reclaim idle threshold.
func (c ConsumeConfig) MinIdle() time.Duration { return time.Duration(c.MinIdleMs) * time.Millisecond }

// Interval returns the demo producer period.
func (c DemoConfig) Interval() time.Duration { return time.Duration(c.IntervalMs) * time.Millisecond }
