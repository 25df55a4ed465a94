package utils

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog.Logger on stdout tagged with service=clearpath.
// Unknown levels fall back to info.
func NewLogger(level string, json bool) *slog.Logger {
	var handlerLevel slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		handlerLevel = slog.LevelDebug
	case "warn", "warning":
		handlerLevel = slog.LevelWarn
	case "error":
		handlerLevel = slog.LevelError
	default:
		handlerLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: handlerLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "clearpath"))
}
