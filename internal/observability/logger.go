package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/config"
)

// NewLogger builds a structured logger from the pipeline's log level and
// format settings. Format "text" (case-insensitive) uses slog.TextHandler,
// which is what operators want when piping a single run's output straight
// to a terminal; any other value, including the default "json", uses
// slog.JSONHandler.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
