package log

import (
	"fmt"
	"strings"
)

// Config declares a logger: level, format and output.
type Config struct {
	Level  string   `json:"level" yaml:"level"`
	Format string   `json:"format" yaml:"format"`
	Output string   `json:"output" yaml:"output"`
	Redact []string `json:"redact" yaml:"redact"`
}

// ParseLevel converts "debug|info|warn|error" (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// ApplyConfig builds a Logger from cfg. Format is "text" or "json" (default
// text); Output is "console" or "null" (default console).
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []LoggerOption{WithLevel(level)}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts = append(opts, WithFormatter(&TextFormatter{}))
	case "json":
		opts = append(opts, WithFormatter(&JSONFormatter{}))
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	switch strings.ToLower(cfg.Output) {
	case "", "console":
		opts = append(opts, WithOutput(NewConsoleOutput()))
	case "null":
		opts = append(opts, WithOutput(NullOutput{}))
	default:
		return nil, fmt.Errorf("log: unknown output %q", cfg.Output)
	}

	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedactedKeys(cfg.Redact...))
	}
	return NewLogger(opts...), nil
}
