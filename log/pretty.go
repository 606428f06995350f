package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records, either as one key=value line
// (FormatText) or as an indented brace block (FormatJSON). Group values,
// including those produced by slog.LogValuer, are flattened to dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	format Format
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func newPrettyHandler(w io.Writer, format Format, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, format: format, mu: &sync.Mutex{}, w: w}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(c.attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix += name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = h.appendBuiltin(fields, slog.Time(slog.TimeKey, r.Time))
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		fields = flatten(fields, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)

		return true
	})

	buf := new(bytes.Buffer)

	if h.format == FormatJSON {
		writeBlock(buf, fields)
	} else {
		writeLine(buf, fields)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// appendBuiltin applies ReplaceAttr to a record field and drops the field
// when the replacement is empty, as it does for a disabled timestamp.
func (h *prettyHandler) appendBuiltin(fields []slog.Attr, a slog.Attr) []slog.Attr {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return fields
	}

	return append(fields, a)
}

func flatten(fields []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup {
		if a.Key == "" {
			return fields
		}

		return append(fields, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}

	if a.Key != "" {
		prefix += a.Key + "."
	}

	for _, g := range a.Value.Group() {
		fields = flatten(fields, prefix, g)
	}

	return fields
}

func writeLine(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		paint(buf, colorGray, a.Key)
		buf.WriteByte('=')
		writeValue(buf, a.Value)
	}
}

func writeBlock(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{\n")

	for i, a := range fields {
		buf.WriteString("  ")
		paint(buf, colorGray, a.Key)
		buf.WriteString(": ")
		writeValue(buf, a.Value)

		if i < len(fields)-1 {
			buf.WriteByte(',')
		}

		buf.WriteByte('\n')
	}

	buf.WriteByte('}')
}

func paint(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		paint(buf, colorCyan, v.String())

	case slog.KindInt64:
		paint(buf, colorYellow, strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		paint(buf, colorYellow, strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		paint(buf, colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			paint(buf, colorGreen, "true")
		} else {
			paint(buf, colorRed, "false")
		}

	case slog.KindDuration:
		paint(buf, colorMagenta, v.Duration().String())

	case slog.KindTime:
		paint(buf, colorBlue, v.Time().Format(time.RFC3339))

	default:
		level, ok := v.Any().(slog.Level)
		if !ok {
			paint(buf, colorCyan, v.String())

			return
		}

		color := colorBlue

		switch {
		case level >= slog.LevelError:
			color = colorRed
		case level >= slog.LevelWarn:
			color = colorYellow
		case level >= slog.LevelInfo:
			color = colorGreen
		}

		paint(buf, color, strings.ToUpper(Level(level).String()))
	}
}
