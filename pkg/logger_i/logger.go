package logger_i

import (
	"log/slog"
	"os"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
)

type Logger struct {
	inner *slog.Logger
}

func Init() {
	options := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	var handler slog.Handler
	if config.IS_PROD {
		options.Level = config.LOG_LEVEL_PROD
		handler = slog.NewJSONHandler(os.Stdout, options)
	} else {
		handler = slog.NewTextHandler(os.Stdout, options)
	}
	slog.SetDefault(slog.New(handler))
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}
