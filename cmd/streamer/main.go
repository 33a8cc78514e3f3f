package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/streamer/internal/cmd/client"
	serverrun "github.com/rzbill/streamer/internal/cmd/server"
	cfgpkg "github.com/rzbill/streamer/internal/config"
	logpkg "github.com/rzbill/streamer/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// Respect STREAMER_LOG_LEVEL for CLI output before any config is loaded.
	level := os.Getenv("STREAMER_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "streamer",
		Short: "Streamer runtime CLI",
		Long:  "Streamer consumes and produces stream entries over Redis or an embedded store. This CLI runs the server and basic client operations.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the streamer HTTP server and demo tasks",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServerConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("STREAMER_CONFIG"), "Config file (JSON or YAML)")
	f.String("backend", "", "Store backend: redis|embedded")
	f.String("redis-addr", "", "Redis address host:port")
	f.String("data-dir", "", "Embedded store data directory (if not specified, uses OS-specific application data directory)")
	f.String("fsync", "", "Embedded fsync mode: always|interval|never")
	f.String("stream", "", "Stream name")
	f.Int64("max-len", 0, "Approximate stream length cap (negative disables trimming)")
	f.String("http", "", "HTTP listen address")
	f.Bool("no-demo", false, "Disable the demo producer and reader")
	f.Duration("demo-interval", 0, "Demo producer interval")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, clientcmd.DefaultBaseURL)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadServerConfig layers defaults, the config file, STREAMER_* variables and
// explicitly set flags, in that order.
func loadServerConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("backend", &cfg.Backend)
	str("redis-addr", &cfg.Redis.Addr)
	str("data-dir", &cfg.Embedded.DataDir)
	str("fsync", &cfg.Embedded.Fsync)
	str("stream", &cfg.Stream.Name)
	str("http", &cfg.HTTP.Addr)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if f.Changed("max-len") {
		cfg.Stream.MaxLen, _ = f.GetInt64("max-len")
	}
	if noDemo, _ := f.GetBool("no-demo"); noDemo {
		cfg.Demo.Enabled = false
	}
	if f.Changed("demo-interval") {
		d, _ := f.GetDuration("demo-interval")
		cfg.Demo.IntervalMs = d.Milliseconds()
	}
	return cfg, cfg.Validate()
}
