package logger

import (
	"log/slog"
	"os"
)

// Interface is the logger handed to use cases and repositories. The *w
// variants take alternating key/value pairs.
type Interface interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Interface

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})
}

type slogLogger struct {
	sl *slog.Logger
}

// NewLogger wraps the process-wide slog logger.
func NewLogger() Interface {
	return &slogLogger{sl: Get()}
}

// NewLoggerWithSlog wraps a specific slog logger. Tests use it with a
// discard handler.
func NewLoggerWithSlog(sl *slog.Logger) Interface {
	return &slogLogger{sl: sl}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.sl.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.sl.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.sl.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.sl.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Interface {
	return &slogLogger{sl: l.sl.With(args...)}
}

func (l *slogLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sl.Debug(msg, keysAndValues...)
}

func (l *slogLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.sl.Info(msg, keysAndValues...)
}

func (l *slogLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sl.Warn(msg, keysAndValues...)
}

func (l *slogLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sl.Error(msg, keysAndValues...)
}

func (l *slogLogger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.sl.Error(msg, keysAndValues...)
	os.Exit(1)
}
