package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON for structured collection in
// deployed environments, text for reading pipeline runs locally.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
