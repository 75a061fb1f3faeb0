// Package obs carries the service's logging, metrics and health endpoints.
package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a tint logger for dev and local, JSON otherwise. level is
// one of debug, info, warn, error; anything else means info.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, parseLevel(level))
}

func newLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	var h slog.Handler
	switch env {
	case "dev", "local":
		h = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen, AddSource: true})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: true})
	}
	return slog.New(h).With("service", "rentals", "env", env)
}

func parseLevel(raw string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
