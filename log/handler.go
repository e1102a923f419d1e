// Package log builds the host's structured logger: the log/slog API backed
// by a charmbracelet/log handler.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Formats accepted by WithFormat.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Option configures the logger.
type Option func(*loggerConfig)

type loggerConfig struct {
	output     io.Writer
	level      slog.Level
	format     string
	prefix     string
	timestamps bool
}

// defaultLoggerConfig returns the default configuration.
func defaultLoggerConfig() loggerConfig {
	return loggerConfig{
		output: os.Stderr,
		level:  slog.LevelWarn,
		format: FormatText,
		prefix: "hostbridge",
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) Option {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithFormat selects text, json or logfmt output.
func WithFormat(format string) Option {
	return func(c *loggerConfig) {
		c.format = format
	}
}

// WithOutput sets the destination. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(c *loggerConfig) {
		c.output = w
	}
}

// WithPrefix sets the prefix printed on every record.
func WithPrefix(prefix string) Option {
	return func(c *loggerConfig) {
		c.prefix = prefix
	}
}

// WithTimestamps enables record timestamps.
func WithTimestamps(enabled bool) Option {
	return func(c *loggerConfig) {
		c.timestamps = enabled
	}
}

// New creates a logger with the given options.
func New(opts ...Option) (*slog.Logger, error) {
	cfg := defaultLoggerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	formatter, err := formatterFor(cfg.format)
	if err != nil {
		return nil, err
	}

	handler := charmlog.NewWithOptions(cfg.output, charmlog.Options{
		Level:           charmlog.Level(cfg.level),
		Prefix:          cfg.prefix,
		ReportTimestamp: cfg.timestamps,
		Formatter:       formatter,
	})
	return slog.New(handler), nil
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func formatterFor(format string) (charmlog.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return charmlog.TextFormatter, nil
	case FormatJSON:
		return charmlog.JSONFormatter, nil
	case FormatLogfmt:
		return charmlog.LogfmtFormatter, nil
	default:
		return charmlog.TextFormatter, fmt.Errorf("unknown log format %q (want text, json or logfmt)", format)
	}
}
