// =============================================================================
// Revenue/Refund Analyzer - Logging
// =============================================================================
//
// Components log through the small printf-style Logger interface below so
// that callers can swap the backend. The default backend is log/slog with a
// text handler; the level comes from config (logging.level) or --verbose.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// slogLogger adapts printf-style calls onto a slog.Logger.
type slogLogger struct {
	l *slog.Logger
}

// New returns a Logger writing text records to w at the given level
// ("debug", "info", "warn", "error"; unknown values mean info).
func New(w io.Writer, level string) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &slogLogger{l: slog.New(h)}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// ParseLevel maps a config string onto a slog level.
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

func (s *slogLogger) Debug(msg string, args ...interface{}) {
	s.l.Debug(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Info(msg string, args ...interface{}) {
	s.l.Info(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Warn(msg string, args ...interface{}) {
	s.l.Warn(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Error(msg string, args ...interface{}) {
	s.l.Error(fmt.Sprintf(msg, args...))
}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
