// Package logger настраивает slog для клиента
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Форматы вывода
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel переводит строку из конфигурации в slog.Level.
// Неизвестное значение дает info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New создает logger с заданным уровнем и форматом и делает его логгером по умолчанию
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: ParseLevel(level) == slog.LevelDebug,
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
