// Package logging configures zerolog for legisloom and hands out component
// loggers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Output formats accepted by ParseFormat.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// ConfigFor builds a Config from the level and format strings of the
// service configuration. Unknown levels fall back to info and unknown
// formats to JSON.
func ConfigFor(level, format string) Config {
	cfg := DefaultConfig()
	cfg.Level = LogLevel(strings.ToLower(strings.TrimSpace(level)))
	cfg.Pretty = strings.EqualFold(strings.TrimSpace(format), FormatConsole)
	return cfg
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache and chain internals
//   - Cache hit/miss/expiry (key, age)
//   - Chain resolutions and the source that answered
//   - Upstream request URLs (redacted)
//
// Info: lifecycle
//   - Server startup/shutdown
//   - Cache backend selection
//   - Cache invalidation
//
// Warn: degraded but serving
//   - Source failed, trying the next one
//   - Fail-open cache and rate limit store errors
//   - Upstream retries and rate limit windows
//   - Search and chat fallbacks
//
// Error: needs attention
//   - Every source of a chain exhausted
//   - Configuration errors
//
// Context Fields:
//   - component: package emitting the entry
//   - chain: metadata, text or summary
//   - source: chain source name
//   - id / bill_id / vote_id: lookup keys
//   - key: cache key (legis:<namespace>:<id>)
//   - endpoint: upstream endpoint label (bill, search, document)
//   - status_code: HTTP status code
//   - error_class: not_found, unauthorized, rate_limit, client, server, network
//   - retry_after: rate limit window
