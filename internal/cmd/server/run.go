package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/streamer/internal/config"
	"github.com/rzbill/streamer/internal/consume"
	"github.com/rzbill/streamer/internal/demo"
	"github.com/rzbill/streamer/internal/runtime"
	httpserver "github.com/rzbill/streamer/internal/server/http"
	"github.com/rzbill/streamer/internal/store"
	logpkg "github.com/rzbill/streamer/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Backend overrides the backend selected by Config.Backend.
	Backend store.Backend
	// OnListening, when set, receives the bound HTTP address.
	OnListening func(addr string)
}

// Run opens the runtime, serves HTTP and runs the demo producer and reader
// until ctx is cancelled or the process receives SIGINT/SIGTERM.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = buildLogger(cfg.Log)
	}
	// Pebble logs through the standard library logger.
	logpkg.RedirectStdLog(logger)

	rt, err := runtime.Open(sctx, runtime.Options{Config: cfg, Logger: logger, Backend: opts.Backend})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting streamer server",
		logpkg.Str("backend", cfg.Backend),
		logpkg.Str("stream", cfg.Stream.Name),
		logpkg.Str("http", cfg.HTTP.Addr),
		logpkg.Bool("demo", cfg.Demo.Enabled),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	hsrv := httpserver.New(rt, logger)

	if err := hsrv.Listen(cfg.HTTP.Addr); err != nil {
		return err
	}
	if opts.OnListening != nil {
		opts.OnListening(hsrv.Addr())
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.Serve(sctx); err != nil && sctx.Err() == nil {
			logger.Error("http error", logpkg.Err(err))
			errCh <- err
			stop()
		}
	}()

	var (
		producer *demo.Producer
		reader   *demo.Reader
	)
	if cfg.Demo.Enabled {
		producer = demo.NewProducer(rt.Client(), rt.Stream(), cfg.Demo.Interval(), logger)
		producer.Start()
		readOpts := append(rt.ConsumeOptions(logger),
			consume.WithCount(cfg.Demo.ReadCount),
			consume.WithBlock(demo.ReadBlock(cfg.Consume.Block())),
		)
		reader = demo.NewReader(sctx, rt.Client(), rt.Stream(), nil, logger, readOpts...)
		reader.Start()
	}

	<-sctx.Done()
	logger.Info("Shutting down streamer server")
	// Stop background work before the runtime closes the store. The reader
	// goes first so new appends can still wake its blocked read.
	if reader != nil {
		reader.Stop()
	}
	if producer != nil {
		producer.Stop()
	}
	hsrv.Close()
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func buildLogger(cfg cfgpkg.LogConfig) logpkg.Logger {
	l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Level, Format: cfg.Format})
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}
