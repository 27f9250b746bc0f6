package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const textTimeFormat = "2006-01-02 15:04:05.000"

// textOutput is shared by a handler and every handler derived from it.
type textOutput struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// ColorTextHandler is a slog.Handler producing one human-readable line per
// record, with ANSI colors when writing to a terminal:
//
//	[2024-05-01 12:00:00.000] [DEBUG] [SET_INFORMATION public] commit path=\a.txt
//
// The command and share of a request are lifted out of the attributes
// into the bracketed tag.
type ColorTextHandler struct {
	out    *textOutput
	level  slog.Leveler
	prefix string // group path, "a.b."
	attrs  []slog.Attr
}

// NewColorTextHandler creates a new ColorTextHandler
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *ColorTextHandler {
	var lv slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		lv = opts.Level
	}
	return &ColorTextHandler{
		out:   &textOutput{w: w, color: useColor},
		level: lv,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *ColorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record
func (h *ColorTextHandler) Handle(_ context.Context, r slog.Record) error {
	var command, share string
	lift := func(a slog.Attr) bool {
		switch a.Key {
		case KeyCommand:
			command = a.Value.String()
		case KeyShare:
			share = a.Value.String()
		default:
			return false
		}
		return true
	}

	// Bound attributes are stored fully qualified; record attributes
	// take the current group path.
	type field struct {
		prefix string
		attr   slog.Attr
	}
	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		if !lift(a) {
			fields = append(fields, field{"", a})
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" || !lift(a) {
			fields = append(fields, field{h.prefix, a})
		}
		return true
	})

	buf := make([]byte, 0, 256)
	buf = fmt.Appendf(buf, "[%s] [%s]", r.Time.Format(textTimeFormat), h.paint(levelColor(r.Level), levelName(r.Level)))
	if tag := strings.TrimSpace(command + " " + share); tag != "" {
		buf = fmt.Appendf(buf, " [%s]", h.paint(colorBlue, tag))
	}
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	for _, f := range fields {
		buf = h.appendAttr(buf, f.prefix, f.attr)
	}
	buf = append(buf, '\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf)
	return err
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return colorGray
	case l < slog.LevelWarn:
		return colorGreen
	case l < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func (h *ColorTextHandler) paint(color, s string) string {
	if !h.out.color {
		return s
	}
	return color + s + colorReset
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func (h *ColorTextHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, inner, ga)
		}
		return buf
	}

	val := formatValue(a.Value)
	if a.Value.Kind() == slog.KindString && strings.ContainsAny(val, " \t\n\"") {
		val = strconv.Quote(val)
	}
	buf = append(buf, ' ')
	buf = append(buf, h.paint(colorCyan, prefix+a.Key)...)
	buf = append(buf, '=')
	return append(buf, val...)
}

// formatValue formats a slog.Value for text output
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 3, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	if h.prefix == "" {
		c.attrs = append(c.attrs, attrs...)
		return &c
	}
	grouped := make([]any, len(attrs))
	for i, a := range attrs {
		grouped[i] = a
	}
	c.attrs = append(c.attrs, slog.Group(strings.TrimSuffix(h.prefix, "."), grouped...))
	return &c
}

// WithGroup returns a handler that qualifies later attributes with name.
func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}
