package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", line, err)
	}

	return m
}

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level %v, got %v", DefaultLevel, logger.Level())
	}
	if logger.Format() != DefaultFormat {
		t.Errorf("expected default format %v, got %v", DefaultFormat, logger.Format())
	}
	if logger.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.pretty {
		t.Error("expected pretty disabled by default")
	}
}

func TestLogger_Make_WithLevel_FiltersMessages(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		log   func(Logger)
		want  bool
	}{
		{"trace at trace", LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{"trace at debug", LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{"debug at debug", LevelDebug, func(l Logger) { l.Debug("m") }, true},
		{"info at warn", LevelWarn, func(l Logger) { l.Info("m") }, false},
		{"warn at warn", LevelWarn, func(l Logger) { l.Warn("m") }, true},
		{"error at error", LevelError, func(l Logger) { l.Error("m") }, true},
		{"warn at error", LevelError, func(l Logger) { l.Warn("m") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(Make(&buf, WithLevel(tt.level)))

			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestLogger_Enabled(t *testing.T) {
	logger := Make(&bytes.Buffer{}, WithLevel(LevelDebug))

	if logger.Enabled(t.Context(), LevelTrace) {
		t.Error("trace enabled at debug level")
	}
	if !logger.Enabled(t.Context(), LevelDebug) {
		t.Error("debug disabled at debug level")
	}

	var zero Logger
	if zero.Enabled(t.Context(), LevelError) {
		t.Error("zero Logger reports enabled")
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelTrace))

	logger.TraceContext(t.Context(), "parse", slog.String("node", "Var"), slog.Int("line", 3))

	m := decode(t, buf.Bytes())

	if m["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", m["level"])
	}
	if m["msg"] != "parse" {
		t.Errorf("msg = %v, want parse", m["msg"])
	}
	if m["node"] != "Var" {
		t.Errorf("node = %v, want Var", m["node"])
	}
	if m["line"] != float64(3) {
		t.Errorf("line = %v, want 3", m["line"])
	}
	if _, ok := m["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithTimeLayout("none"))

	logger.Warn("slow", slog.String("op", "call"))

	if got, want := buf.String(), "level=WARN msg=slow op=call\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogger_WithCaller_AddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithCaller(true))

	logger.Info("here")

	m := decode(t, buf.Bytes())

	src, ok := m["source"].(map[string]any)
	if !ok {
		t.Fatalf("missing source in %v", m)
	}

	file, _ := src["file"].(string)
	if !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want the calling test file", file)
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithFormat(FormatJSON))
	logger := base.With(slog.String("component", "repl"))

	logger.Info("first")
	base.Info("second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	if decode(t, lines[0])["component"] != "repl" {
		t.Error("With attribute missing from derived logger")
	}
	if _, ok := decode(t, lines[1])["component"]; ok {
		t.Error("With attribute leaked into base logger")
	}
}

func TestLogger_Wrap_AppliesOptions(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug), WithFormat(FormatJSON))

	if base.Level() != LevelError {
		t.Errorf("base level changed to %v", base.Level())
	}
	if wrapped.Level() != LevelDebug {
		t.Errorf("wrapped level = %v, want debug", wrapped.Level())
	}

	wrapped.Debug("visible")
	decode(t, buf.Bytes())
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var logger Logger

	logger.Trace("t")
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
	logger.InfoContext(t.Context(), "ic")

	if l := logger.With(slog.String("k", "v")); l.Logger != nil {
		t.Error("With on zero Logger should stay a no-op")
	}
	if logger.Level() != DefaultLevel {
		t.Errorf("zero Logger level = %v", logger.Level())
	}
	if logger.Format() != DefaultFormat {
		t.Errorf("zero Logger format = %v", logger.Format())
	}

	var buf bytes.Buffer
	logger.Wrap(WithOutput(&buf)).Info("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Error("Wrap on zero Logger should produce a working logger")
	}
}

type failure struct{ op string }

func (f failure) Error() string { return "failed" }

func (f failure) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", "failed"),
		slog.String("op", f.op),
	)
}

func TestLogger_Pretty_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(true), WithTimeLayout("none"))

	logger.With(slog.String("component", "cli")).
		Error("run failed", slog.Any("err", error(failure{op: "call"})), slog.Bool("fatal", true))

	out := buf.String()

	for _, want := range []string{
		"level" + colorReset + "=" + colorRed + "ERROR",
		"run failed",
		"component" + colorReset + "=" + colorCyan + "cli",
		"err.error",
		"err.op" + colorReset + "=" + colorCyan + "call",
		colorGreen + "true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	if strings.Contains(out, "time") {
		t.Errorf("disabled timestamp present in %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("text record should be one line: %q", out)
	}
}

func TestLogger_Pretty_JSONBlock(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(true), WithFormat(FormatJSON), WithTimeLayout("none"))

	grouped := logger.Logger.WithGroup("req")
	grouped.Info("done", slog.Int("status", 200))

	out := buf.String()

	if !strings.HasPrefix(out, "{\n") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("expected brace block, got %q", out)
	}
	if !strings.Contains(out, "req.status") {
		t.Errorf("group prefix missing in %q", out)
	}
	if !strings.Contains(out, colorYellow+"200") {
		t.Errorf("integer not colorized in %q", out)
	}
}

func TestLogger_Pretty_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(true), WithLevel(LevelWarn))

	logger.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("info logged below warn: %q", buf.String())
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)

	logger := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithFormat(FormatJSON))

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Go(func() {
			l := logger.With(slog.Int("worker", i))
			for range 10 {
				l.Info("tick")
			}
		})
	}

	wg.Wait()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 160 {
		t.Fatalf("expected 160 records, got %d", len(lines))
	}

	for _, line := range lines {
		decode(t, line)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestLogger_WriteError_Ignored(t *testing.T) {
	logger := Make(writerFunc(func([]byte) (int, error) {
		return 0, errors.New("closed")
	}))

	logger.Info("dropped")
}
