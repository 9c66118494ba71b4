// Package logger initializes the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// L is the process logger. Init must be called before use; it defaults
// to an info-level text logger otherwise.
var L = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Init configures the process logger from config values.
// level: debug, info, warn, error. format: text or json.
func Init(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	L = slog.New(handler)
	slog.SetDefault(L)
}
