package profile

// Profiler configures one profiling session.
type Profiler struct {
	// Mode is one of [Modes]; empty disables profiling.
	Mode string
	// Path is the output directory; empty uses the library default.
	Path string
	// Quiet suppresses the library's start and stop messages.
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling as configured by p.
//
// If the binary was built without the pprof tag, or p.Mode is empty or
// unknown, Start returns a no-op Stopper. Both Start and Stop are always
// safely callable.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
