// Package aggregate accumulates sampled time into per-category totals and the
// ordered list of per-extension samples.
package aggregate

import (
	"github.com/layerprof/layerprof/internal/stack"
)

// Totals holds the per-category accumulated seconds for one execution.
// Every field is monotonically non-decreasing for the life of the execution.
type Totals struct {
	Core      float64
	Theme     float64
	Extension float64
	Overhead  float64
}

// Sum returns the wall-clock seconds accounted for so far.
func (t Totals) Sum() float64 {
	return t.Core + t.Theme + t.Extension + t.Overhead
}

// ExtensionSample is one billed extension interval. Samples are appended,
// never mutated; only their grouped sums matter to the final record.
type ExtensionSample struct {
	ID      string
	Seconds float64
}

// Aggregator owns the runtime totals and the extension sample list for a
// single sequential execution. It holds no lock; per-execution control flow
// is single-threaded.
type Aggregator struct {
	totals  Totals
	samples []ExtensionSample
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Bill adds seconds to the bucket for cat. Extension intervals also append a
// sample carrying the extension identity.
func (a *Aggregator) Bill(cat stack.Category, seconds float64, extensionID string) {
	switch cat {
	case stack.Extension:
		a.totals.Extension += seconds
		a.samples = append(a.samples, ExtensionSample{ID: extensionID, Seconds: seconds})
	case stack.Theme:
		a.totals.Theme += seconds
	default:
		a.totals.Core += seconds
	}
}

// BillOverhead attributes seconds to the profiler's own bucket.
func (a *Aggregator) BillOverhead(seconds float64) {
	a.totals.Overhead += seconds
}

// Snapshot returns the current totals by value.
func (a *Aggregator) Snapshot() Totals {
	return a.totals
}

// SampleCount returns how many extension samples were recorded. The final
// record reports this as the stack switch count.
func (a *Aggregator) SampleCount() int {
	return len(a.samples)
}

// GroupedExtensionTotals sums the sample list by extension identity.
//
// Extension attribution is the rare path, so grouping happens once here at
// finalize rather than incrementally on every bill.
func (a *Aggregator) GroupedExtensionTotals() map[string]float64 {
	grouped := make(map[string]float64, len(a.samples))
	for _, s := range a.samples {
		grouped[s.ID] += s.Seconds
	}
	return grouped
}
