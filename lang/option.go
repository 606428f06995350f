package lang

import (
	"io"
	"maps"

	"github.com/ardnew/ajs/log"
)

// DefaultMaxDepth is the default limit on nested function invocations.
const DefaultMaxDepth = 1024

// Option configures parsing and evaluation.
type Option func(*config)

type config struct {
	logger   log.Logger
	bridge   Bridge
	maxDepth int
	output   io.Writer
	globals  map[string]Value
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBridge sets the host-interop bridge consulted for names and values
// that the script runtime cannot resolve itself.
func WithBridge(b Bridge) Option {
	return func(c *config) { c.bridge = b }
}

// WithMaxDepth limits nested function invocations. Values below one
// restore [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		c.maxDepth = depth
	}
}

// WithOutput sets the writer used by the print builtin.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithGlobals binds each entry of m in the global scope of a new runtime.
func WithGlobals(m map[string]Value) Option {
	return func(c *config) {
		if c.globals == nil {
			c.globals = make(map[string]Value, len(m))
		}

		maps.Copy(c.globals, m)
	}
}

func makeConfig(opts ...Option) config {
	c := config{maxDepth: DefaultMaxDepth, output: io.Discard}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
