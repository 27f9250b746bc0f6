package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields for one SMB request.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Command   string    // SMB command name (SET_INFORMATION, ...)
	Share     string    // Tree share name
	ClientIP  string    // Client IP address (without port)
	Username  string    // Authenticated account name
	SessionID uint64    // SMB UID / session identifier
	TreeID    uint16    // SMB TID
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithCommand returns a copy with the command name set.
func (lc *LogContext) WithCommand(command string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Command = command
	}
	return clone
}

// WithTree returns a copy bound to a tree connect.
func (lc *LogContext) WithTree(share string, treeID uint16) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Share = share
		clone.TreeID = treeID
	}
	return clone
}

// WithSession returns a copy with the session identity set.
func (lc *LogContext) WithSession(sessionID uint64, username string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SessionID = sessionID
		clone.Username = username
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

// prepend returns args preceded by the non-empty request fields of lc.
func (lc *LogContext) prepend(args []any) []any {
	out := make([]any, 0, 16+len(args))
	for _, f := range []struct {
		key string
		val any
		set bool
	}{
		{KeyTraceID, lc.TraceID, lc.TraceID != ""},
		{KeySpanID, lc.SpanID, lc.SpanID != ""},
		{KeyCommand, lc.Command, lc.Command != ""},
		{KeyShare, lc.Share, lc.Share != ""},
		{KeyClientIP, lc.ClientIP, lc.ClientIP != ""},
		{KeyUsername, lc.Username, lc.Username != ""},
		{KeySessionID, lc.SessionID, lc.SessionID != 0},
		{KeyTreeID, lc.TreeID, lc.TreeID != 0},
	} {
		if f.set {
			out = append(out, f.key, f.val)
		}
	}
	return append(out, args...)
}
