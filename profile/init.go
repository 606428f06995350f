package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures a profiling session.
type Profiler struct {
	// Mode names the profile to collect; see [Modes]. Empty disables
	// profiling.
	Mode string
	// Path is the output directory. Empty lets the profiler pick a
	// temporary one.
	Path string
	// Quiet suppresses the profiler's own log output.
	Quiet bool
}

// Option modifies a Profiler.
type Option func(Profiler) Profiler

// Make returns a Profiler with opts applied.
func Make(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// Start begins profiling and returns the session's stopper. It returns a
// no-op stopper when the mode is empty or unknown, or when built without
// the pprof tag. Both Start and Stop are always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// WithMode sets the profile mode.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet sets whether the profiler logs its start and stop.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

type ignore struct{}

func (ignore) Stop() {}
