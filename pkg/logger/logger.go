package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger — минимальный интерфейс логгера, который используется во всех слоях приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(args ...any) Logger
}

// SlogLogger реализует Logger поверх log/slog.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создаёт JSON-логгер в stdout. Уровень берётся из LOG_LEVEL (debug|info|warn|error).
func NewSlogLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")))
}

func NewSlogLoggerWithWriter(w io.Writer, level slog.Level) *SlogLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{log: slog.New(handler)}
}

// NewNopLogger возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNopLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(io.Discard, slog.LevelError+1)
}

func (l *SlogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		l.log.Error(fmt.Sprintf(format, args...))
		return
	}
	l.log.Error(fmt.Sprintf(format, args...), slog.String("error", err.Error()))
}

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{log: l.log.With(args...)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
