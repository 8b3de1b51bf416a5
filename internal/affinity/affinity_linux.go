//go:build linux

// Package affinity pins the calling goroutine's OS thread to a single
// CPU. It is an opt-in enrichment (Options.PinWorkers) on a worker
// pool's worker goroutines, using the same technique a reactor-style
// server might use to pin its I/O workers.
package affinity

import (
	"golang.org/x/sys/unix"
)

// Supported reports whether Pin can do anything on this platform.
const Supported = true

// Pin restricts the calling OS thread to run on cpu. It does not lock
// the goroutine to its thread: the caller must have already called
// runtime.LockOSThread.
func Pin(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
