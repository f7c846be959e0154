//go:build poolprofile

// Debug-only profiling hook for the worker pool, built with
// -tags poolprofile: a package-level *prof.Profiler started once,
// serving pprof over its own HTTP listener and sampling memory on a
// timer.
package workerpool

import (
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"
)

var poolProfiler *prof.Profiler

// EnableProfiling starts a pprof web endpoint on addr and a periodic
// memory profile sample. Call once, before constructing a Pool.
func EnableProfiling(addr string) {
	poolProfiler = prof.NewProf()
	go poolProfiler.PprofWeb(addr)
	poolProfiler.StartMemProfile(5*time.Minute, 30*time.Second)
}
