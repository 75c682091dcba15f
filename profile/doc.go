// Package profile provides optional runtime profiling for scfg.
//
// Profiling is compiled in only with the "pprof" build tag ([Tag]). Without
// it, [Profiler.Start] always returns a no-op stopper, [Modes] is empty, and
// the package adds nothing to the binary.
//
// With the tag, [github.com/pkg/profile] does the work and [net/http/pprof]
// handlers are registered on the default mux:
//
//	go build -tags pprof .
//	./scfg --pprof-mode cpu --pprof-dir ./profiles load big.cfg
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// Supported modes are allocs, block, clock, cpu, goroutine, heap, mem, mutex,
// thread, and trace. Profiles are written to the directory given by
// [Profiler.Path], named after the mode (cpu.pprof, mem.pprof, ...).
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
