package logging

import (
	"log/slog"
	"os"
)

// Init installs a text logger on stderr as the slog default. The level comes
// from LOG_LEVEL and falls back to def when the variable is unset or unknown.
func Init(def slog.Level) *slog.Logger {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: Level(os.Getenv("LOG_LEVEL"), def),
		}),
	)
	slog.SetDefault(logger)
	return logger
}

// Level parses a LOG_LEVEL value.
func Level(s string, def slog.Level) slog.Level {
	switch s {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	}
	return def
}
