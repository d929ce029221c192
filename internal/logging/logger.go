package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level names accepted by NewLogger and the logging.level setting.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogFileName is the name of the log file created by NewLogger.
const LogFileName = "servloc.log"

var levels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// sink is the destination shared by a Logger and every child derived from it.
type sink struct {
	mu   sync.Mutex
	file *os.File // nil unless the logger owns a log file
}

// Logger provides structured JSON logging with persistent attributes.
// It is safe for concurrent use and satisfies locator.Logger.
type Logger struct {
	slog *slog.Logger
	sink *sink
}

// NewLogger creates a Logger that writes to {dir}/servloc.log, creating dir
// if needed. An empty dir writes to stderr instead. Unknown levels fall back
// to info.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriterLogger(file, level)
	l.sink.file = file
	return l, nil
}

// NewWriterLogger creates a Logger that writes JSON lines to w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levels[ParseLevel(level)]})
	return &Logger{slog: slog.New(h), sink: &sink{}}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{slog: slog.New(slog.DiscardHandler), sink: &sink{}}
}

// WithComponent tags every entry with the component that produced it
// ("watch", "stress", "locator", ...).
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithService tags every entry with a service name.
func (l *Logger) WithService(name string) *Logger {
	return l.With("service", name)
}

// With returns a child Logger carrying the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{slog: l.slog.With(args...), sink: l.sink}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	l.slog.Log(context.Background(), level, msg, args...)
}

// Close syncs and closes the log file, if any. Closing any logger in a family
// closes the shared file; later calls are no-ops.
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	f := l.sink.file
	if f == nil {
		return nil
	}
	l.sink.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// ParseLevel normalizes a level name, case-insensitively. Unknown names
// map to LevelInfo.
func ParseLevel(level string) string {
	name := strings.ToLower(strings.TrimSpace(level))
	if _, ok := levels[name]; ok {
		return name
	}
	return LevelInfo
}

// ValidLevels returns the accepted level names, most verbose first.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
