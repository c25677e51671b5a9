package logger

import (
	"log/slog"
	"os"
)

// New returns a configured slog.Logger writing text to stderr.
// When verbose is true, the logger emits debug-level logs; otherwise info-level.
func New(verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level(verbose),
	}))
}

// NewJSON returns a configured slog.Logger writing JSON to stderr, for
// running behind log collectors.
func NewJSON(verbose bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level(verbose),
	}))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
