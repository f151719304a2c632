// Package logger provides logging functionality.

package logger

import (
	"io"
	"os"
	"time"

	"catchall-api/internal/config"

	"github.com/rs/zerolog"
)

// NewLog initializes a logger.
func NewLog(cfg *config.Config) *zerolog.Logger {
	var level zerolog.Level
	switch cfg.Logger.Level {
	case 0:
		level = zerolog.DebugLevel
	case 1:
		level = zerolog.InfoLevel
	case 2:
		level = zerolog.WarnLevel
	case 3:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	// Console output is for local runs; the scratch container logs raw JSON.
	var out io.Writer = os.Stdout
	if cfg.Logger.Console {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	Logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
	return &Logger
}
