package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Stream.Name != "example-stream" || cfg.Stream.MaxLen != 100 {
		t.Fatalf("stream defaults: %+v", cfg.Stream)
	}
	if cfg.Consume.MinIdle() != 5*time.Second {
		t.Fatalf("min idle default: %v", cfg.Consume.MinIdle())
	}
	if cfg.Consume.Block() != 0 {
		t.Fatalf("block default should wait indefinitely")
	}
	if cfg.Demo.Interval() != time.Second {
		t.Fatalf("demo interval default: %v", cfg.Demo.Interval())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "streamer.json")
	data := []byte(`{"backend":"embedded","stream":{"name":"orders","maxLen":500},"consume":{"minIdleMs":250}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendEmbedded || cfg.Stream.Name != "orders" || cfg.Stream.MaxLen != 500 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Consume.MinIdleMs != 250 || cfg.Consume.Count != 10 {
		t.Fatalf("file values should overlay defaults: %+v", cfg.Consume)
	}
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "streamer.yaml")
	data := []byte("backend: redis\nredis:\n  addr: redis:6380\n  db: 2\ndemo:\n  enabled: false\nlog:\n  level: debug\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6380" || cfg.Redis.DB != 2 || cfg.Redis.PoolSize != 10 {
		t.Fatalf("redis: %+v", cfg.Redis)
	}
	if cfg.Demo.Enabled || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadBadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(file, []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("STREAMER_BACKEND", "embedded")
	t.Setenv("STREAMER_STREAM", "events")
	t.Setenv("STREAMER_CONSUME_MIN_IDLE_MS", "1500")
	t.Setenv("STREAMER_CONSUME_MAX_RETRIES", "7")
	t.Setenv("STREAMER_DEMO_ENABLED", "false")
	t.Setenv("STREAMER_REDIS_DB", "not-a-number")
	FromEnv(&cfg)
	if cfg.Backend != BackendEmbedded || cfg.Stream.Name != "events" {
		t.Fatalf("env override strings: %+v", cfg)
	}
	if cfg.Consume.MinIdleMs != 1500 || cfg.Consume.MaxRetries != 7 {
		t.Fatalf("env override ints: %+v", cfg.Consume)
	}
	if cfg.Demo.Enabled {
		t.Fatalf("env override bool")
	}
	if cfg.Redis.DB != 0 {
		t.Fatalf("invalid ints must be ignored")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "kafka"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("want ErrUnknownBackend, got %v", err)
	}
	cfg = Default()
	cfg.Stream.Name = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingStream) {
		t.Fatalf("want ErrMissingStream, got %v", err)
	}
	cfg = Default()
	cfg.Consume.Count = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadCount) {
		t.Fatalf("want ErrBadCount, got %v", err)
	}
}
