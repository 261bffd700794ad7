package helpers

import (
	"log/slog"
	"os"
)

// NewLogger creates a new Logger with structured logging using slog
// logLevel can be "debug", "info", "warn", or "error"
func NewLogger(serviceName, logLevel string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	return slog.New(handler).With("service", serviceName)
}

// NewTextLogger is the text-format variant of NewLogger, used when a custom
// log settings file asks for format = "text"
func NewTextLogger(serviceName, logLevel string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	return slog.New(handler).With("service", serviceName)
}

func parseLevel(logLevel string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return level
}
