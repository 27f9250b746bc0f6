// Package logger is the process-wide structured logger, a thin layer over
// log/slog with a colored text format for terminals and JSON for
// collectors. Request-scoped fields travel in a LogContext on the
// context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a logger severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// slogLevel maps l onto slog's spacing of four between severities.
func (l Level) slogLevel() slog.Level {
	return slog.Level(4 * (int(l) - int(LevelInfo)))
}

// parseLevel accepts a level name in any case.
func parseLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return 0, false
}

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// destination is where records go and how they are encoded.
type destination struct {
	w      io.Writer
	closer io.Closer // non-nil for files opened by Init
	json   bool
	color  bool
}

var (
	// level is shared by every handler, so changing it never rebuilds one.
	level slog.LevelVar

	current atomic.Pointer[slog.Logger]

	mu  sync.Mutex // guards dst
	dst = destination{w: os.Stdout, color: isTerminal(os.Stdout.Fd())}
)

func init() {
	level.Set(slog.LevelInfo)
	mu.Lock()
	rebuildLocked()
	mu.Unlock()
}

// rebuildLocked installs a logger for the current destination.
func rebuildLocked() {
	opts := &slog.HandlerOptions{Level: &level}
	var h slog.Handler
	if dst.json {
		h = slog.NewJSONHandler(dst.w, opts)
	} else {
		h = NewColorTextHandler(dst.w, opts, dst.color)
	}
	current.Store(slog.New(h))
}

// setOutput redirects records to w, closing a log file opened earlier.
func setOutput(w io.Writer, closer io.Closer, color bool) {
	mu.Lock()
	defer mu.Unlock()
	if dst.closer != nil && dst.closer != closer {
		_ = dst.closer.Close()
	}
	dst.w, dst.closer, dst.color = w, closer, color
	rebuildLocked()
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	switch strings.ToLower(cfg.Output) {
	case "":
	case "stdout":
		setOutput(os.Stdout, nil, isTerminal(os.Stdout.Fd()))
	case "stderr":
		setOutput(os.Stderr, nil, isTerminal(os.Stderr.Fd()))
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		setOutput(f, f, false)
	}

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
	return nil
}

// InitWithWriter initializes the logger with a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	setOutput(w, nil, enableColor)
	if level != "" {
		SetLevel(level)
	}
	if format != "" {
		SetFormat(format)
	}
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := parseLevel(name); ok {
		level.Set(l.slogLevel())
	}
}

// SetFormat sets the output format (text or json). Unknown formats are
// ignored.
func SetFormat(format string) {
	var asJSON bool
	switch strings.ToLower(format) {
	case "text":
	case "json":
		asJSON = true
	default:
		return
	}
	mu.Lock()
	defer mu.Unlock()
	dst.json = asJSON
	rebuildLocked()
}

// ============================================================================
// Structured Logging API
// ============================================================================

// logAt emits one record. Fields from a LogContext in ctx come first.
func logAt(ctx context.Context, l slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := current.Load()
	if !lg.Enabled(ctx, l) {
		return
	}
	if lc := FromContext(ctx); lc != nil {
		args = lc.prepend(args)
	}
	lg.Log(ctx, l, msg, args...)
}

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) { logAt(context.Background(), slog.LevelDebug, msg, args) }

// Info logs at info level with structured fields
func Info(msg string, args ...any) { logAt(context.Background(), slog.LevelInfo, msg, args) }

// Warn logs at warn level with structured fields
func Warn(msg string, args ...any) { logAt(context.Background(), slog.LevelWarn, msg, args) }

// Error logs at error level with structured fields
func Error(msg string, args ...any) { logAt(context.Background(), slog.LevelError, msg, args) }

// DebugCtx logs at debug level, prefixing the request fields found in ctx
func DebugCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with context
func InfoCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with context
func WarnCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with context
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelError, msg, args)
}

// With returns a new slog.Logger with additional attributes
func With(args ...any) *slog.Logger {
	return current.Load().With(args...)
}

// Duration returns duration since start time in milliseconds
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
