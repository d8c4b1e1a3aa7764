package main

import (
	"log/slog"
	"os"
	"runtime/pprof"
)

// CPUProfiler writes a CPU profile covering its lifetime to a file.
type CPUProfiler struct {
	file *os.File
}

// NewCPUProfiler starts profiling into path. An empty path disables it.
func NewCPUProfiler(path string) *CPUProfiler {
	cprof := &CPUProfiler{}

	if path == "" {
		return cprof
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create cpu profile", "err", err)

		return cprof
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		slog.Error("Could not start cpu profile", "err", err)
		f.Close()

		return cprof
	}

	cprof.file = f

	return cprof
}

func (cprof *CPUProfiler) Stop() {
	if cprof == nil || cprof.file == nil {
		return
	}

	pprof.StopCPUProfile()
	cprof.file.Close()
	cprof.file = nil
}

// writeAllocProfile writes the allocation profile of the process so far.
func writeAllocProfile(path string) {
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create allocs profile", "err", err)

		return
	}
	defer f.Close()

	if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		slog.Error("Could not write allocs profile", "err", err)
	}
}
