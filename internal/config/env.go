package config

import (
	"os"
	"strconv"
)

// FromEnv overlays STREAMER_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	int64v := func(name string, dst *int64) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}

	str("STREAMER_BACKEND", &cfg.Backend)
	str("STREAMER_REDIS_ADDR", &cfg.Redis.Addr)
	str("STREAMER_REDIS_USERNAME", &cfg.Redis.Username)
	str("STREAMER_REDIS_PASSWORD", &cfg.Redis.Password)
	integer("STREAMER_REDIS_DB", &cfg.Redis.DB)
	integer("STREAMER_REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	str("STREAMER_DATA_DIR", &cfg.Embedded.DataDir)
	str("STREAMER_FSYNC", &cfg.Embedded.Fsync)
	str("STREAMER_STREAM", &cfg.Stream.Name)
	int64v("STREAMER_STREAM_MAX_LEN", &cfg.Stream.MaxLen)
	integer("STREAMER_CONSUME_COUNT", &cfg.Consume.Count)
	int64v("STREAMER_CONSUME_BLOCK_MS", &cfg.Consume.BlockMs)
	int64v("STREAMER_CONSUME_MIN_IDLE_MS", &cfg.Consume.MinIdleMs)
	integer("STREAMER_CONSUME_MAX_RETRIES", &cfg.Consume.MaxRetries)
	if v := os.Getenv("STREAMER_DEMO_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo.Enabled = b
		}
	}
	int64v("STREAMER_DEMO_INTERVAL_MS", &cfg.Demo.IntervalMs)
	str("STREAMER_HTTP_ADDR", &cfg.HTTP.Addr)
	str("STREAMER_LOG_LEVEL", &cfg.Log.Level)
	str("STREAMER_LOG_FORMAT", &cfg.Log.Format)
}
