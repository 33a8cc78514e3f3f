// Package log provides streamer's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by log/slog through a
// bridge handler that feeds a formatter/outputs pipeline, so output looks
// the same whichever path produced it.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("logclient"), log.Str("stream", "orders"))
//	l.Warn("xreadgroup failed", log.Err(err))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (text or JSON
// format, console or null output, redacted keys).
//
// # Interop
//
// RedirectStdLog sends the standard library logger (used by Pebble) through
// a Logger; ToStdLogger adapts a Logger for APIs that want *log.Logger.
package log
