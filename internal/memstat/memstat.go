// Package memstat provides the process-level memory peak fallback used when
// the host exposes no memory counter of its own.
package memstat

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// PeakRSS returns the peak resident set size of pid in bytes. Platforms that
// do not report a high-water mark fall back to the current RSS.
func PeakRSS(pid int) (uint64, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, fmt.Errorf("open process %d: %w", pid, err)
	}

	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("read memory info for %d: %w", pid, err)
	}
	if mi.HWM > 0 {
		return mi.HWM, nil
	}
	return mi.RSS, nil
}

// Probe wraps PeakRSS into the nil-safe probe shape the recorder consumes.
// Measurement failures degrade to zero; the profiler never fails an
// execution over a missing counter.
func Probe(pid int) func() uint64 {
	return func() uint64 {
		peak, err := PeakRSS(pid)
		if err != nil {
			return 0
		}
		return peak
	}
}
