// Package profile starts optional runtime profiling through
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	ajs run --pprof-mode cpu --pprof-dir ./profiles script.ajs
//	go tool pprof ./profiles/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] always returns a
// no-op stopper, so callers never need their own build constraints.
//
// The supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Builds with the tag also register the
// [net/http/pprof] handlers on the default mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
