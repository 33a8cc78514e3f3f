package runtime

import (
	"context"
	"errors"
	"fmt"

	cfgpkg "github.com/rzbill/streamer/internal/config"
	"github.com/rzbill/streamer/internal/consume"
	"github.com/rzbill/streamer/internal/logclient"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/internal/store/embedded"
	"github.com/rzbill/streamer/internal/store/redisstore"
	"github.com/rzbill/streamer/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger log.Logger
	// Backend overrides the backend selected by Config.Backend.
	Backend store.Backend
}

// Runtime wires config, the store backend and the log client for one process.
type Runtime struct {
	backend store.Backend
	client  *logclient.Client
	config  cfgpkg.Config
	logger  log.Logger
}

// Open builds the backend named by the configuration and the log client
// over it.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = openBackend(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		backend: backend,
		config:  cfg,
		logger:  logger.WithComponent("runtime"),
		client:  logclient.New(backend, logclient.Options{MaxLen: cfg.Stream.MaxLen, Logger: logger}),
	}
	rt.logger.Info("runtime opened", log.Str("backend", cfg.Backend), log.Str("stream", cfg.Stream.Name))
	return rt, nil
}

func openBackend(cfg cfgpkg.Config, logger log.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case cfgpkg.BackendRedis:
		return redisstore.New(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Logger:   logger,
		}), nil
	case cfgpkg.BackendEmbedded:
		fsync, err := pebblestore.ParseFsyncMode(cfg.Embedded.Fsync)
		if err != nil {
			return nil, err
		}
		b, err := embedded.Open(embedded.Options{
			Storage: pebblestore.Options{DataDir: cfg.Embedded.DataDir, Fsync: fsync},
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("runtime: %w", err)
		}
		return b, nil
	default:
		return nil, cfgpkg.ErrUnknownBackend
	}
}

// Close closes the backend.
func (r *Runtime) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

// CheckHealth pings the store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.backend == nil {
		return errors.New("backend not open")
	}
	_, err := r.client.Ping(ctx)
	return err
}

// Client returns the log client.
func (r *Runtime) Client() *logclient.Client { return r.client }

// Stream returns the configured stream name.
func (r *Runtime) Stream() string { return r.config.Stream.Name }

// ConsumeOptions translates the consume configuration into iterator options.
func (r *Runtime) ConsumeOptions(logger log.Logger) []consume.Option {
	c := r.config.Consume
	if logger == nil {
		logger = r.logger
	}
	return []consume.Option{
		consume.WithCount(c.Count),
		consume.WithBlock(c.Block()),
		consume.WithMinIdle(c.MinIdle()),
		consume.WithMaxRetries(c.MaxRetries),
		consume.WithLogger(logger),
	}
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
