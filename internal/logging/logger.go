// Package logging configures the process-wide zerolog logger.
//
// Call Init once at startup; everything else logs through
// github.com/rs/zerolog/log.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Level is one of trace, debug, info, warn, error. Unknown values fall back to info.
	Level string
	// Format is json or console.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

func Init(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	logger := zerolog.New(out).With().Timestamp().Str("service", "climblog").Logger()
	log.Logger = logger
	return logger
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
