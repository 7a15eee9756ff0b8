// Package telemetry provides structured logging for the server, grounded
// on the pack's zerolog-based logger convention rather than the teacher's
// own bare log.Printf: a global base logger plus per-component child
// loggers.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the configured base logger. Init must run before any
// component logger is derived from it.
var Logger zerolog.Logger

// Config selects level and output shape.
type Config struct {
	Level string // debug, info, warn, error
	JSON  bool
}

// Init configures the global Logger from cfg.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	if cfg.JSON {
		Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child logger tagging every line with component.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
