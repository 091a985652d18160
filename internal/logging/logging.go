package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LevelEnv overrides the log level (debug, info, warn, error).
const LevelEnv = "RIFEXPORT_LOG_LEVEL"

// Setup initializes a zerolog.Logger based on the requested format.
// format can be "text" (human-friendly console) or "json" (structured).
// Dropped claims are logged at debug and only show with RIFEXPORT_LOG_LEVEL=debug.
func Setup(format string) zerolog.Logger {
	level := zerolog.InfoLevel
	if v := os.Getenv(LevelEnv); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			level = l
		}
	}

	var log zerolog.Logger
	if format == "text" {
		log = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("app", "rifexport").Logger()
}
