// Package config provides loading and environment overlay for the streamer
// server configuration. It exposes a Default() baseline, JSON or YAML file
// loading and STREAMER_* environment overrides.
//
// Example:
//
//	cfg, err := config.Load("/etc/streamer.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
//	defer rt.Close()
package config
