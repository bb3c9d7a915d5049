// Package logger builds the structured logger shared by the server, the
// wizard handlers and the sessions.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a logger for env. Development gets a debug-level text
// handler; every other environment gets JSON. level, when set, overrides
// the environment default ("debug", "info", "warn", "error").
func New(env, level string) *slog.Logger {
	return NewWriter(os.Stdout, env, level)
}

// NewWriter is New writing to w.
func NewWriter(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	dev := strings.EqualFold(env, "development")
	if dev {
		opts.Level = slog.LevelDebug
	}
	if level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			opts.Level = l
		}
	}

	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
