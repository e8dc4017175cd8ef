package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/banking-ledger-core/internal/config"
)

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger on stdout. Every line carries the application
// name and environment when they are configured.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)
	logger := slog.New(newHandler(cfg.Logging.Format, w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}))
	if cfg.Application.Name != "" {
		logger = logger.With("app", cfg.Application.Name, "env", cfg.Application.Env)
	}

	logger.Info("logger initialized", "level", level.String(), "format", formatName(cfg.Logging.Format))
	return logger
}

// newHandler picks the text handler for "text" and JSON for anything else
func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if formatName(format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func formatName(format string) string {
	if strings.EqualFold(format, "text") {
		return "text"
	}
	return "json"
}
