// Package logging builds the process logger from LOG_FORMAT and LOG_LEVEL.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a text or JSON logger at level. Unknown values fall back to
// text and info.
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// FromEnv builds a stderr logger from LOG_FORMAT and LOG_LEVEL and makes it
// the default.
func FromEnv() *slog.Logger {
	l := New(os.Stderr, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
