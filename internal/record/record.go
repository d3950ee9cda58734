// Package record builds the per-execution summary that gets persisted.
//
// One Record per execution: created at finalize, immutable afterwards,
// serialized as a single JSON line. The field names are a shared contract
// with the consumers that read the profile file; the core bucket keeps its
// historical wire name "wordpress".
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/layerprof/layerprof/internal/aggregate"
	"github.com/layerprof/layerprof/internal/hostctx"
	"github.com/layerprof/layerprof/internal/pathclass"
	"github.com/layerprof/layerprof/internal/sampler"
)

// Runtime is the time-accounting section of a Record. All values are seconds.
type Runtime struct {
	Total     float64            `json:"total"`
	Core      float64            `json:"wordpress"`
	Theme     float64            `json:"theme"`
	Plugins   float64            `json:"plugins"`
	Profile   float64            `json:"profile"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Record is the persisted per-execution summary.
type Record struct {
	ID               string  `json:"id"`
	URL              string  `json:"url"`
	ClientIP         string  `json:"ip"`
	PID              int     `json:"pid"`
	Date             string  `json:"date"`
	Runtime          Runtime `json:"runtime"`
	MemoryPeakBytes  uint64  `json:"memory"`
	StackSwitchCount int     `json:"stack_count"`
	QueryCount       int     `json:"queries"`
}

// Recorder assembles the final Record from the aggregator's state.
type Recorder struct {
	paths *pathclass.Classifier
	agg   *aggregate.Aggregator
	sched *sampler.Scheduler
}

// NewRecorder creates a Recorder over the given collaborators.
func NewRecorder(paths *pathclass.Classifier, agg *aggregate.Aggregator, sched *sampler.Scheduler) *Recorder {
	return &Recorder{paths: paths, agg: agg, sched: sched}
}

// Finalize flushes the pending sample, folds in the whole-script special
// cases and returns the completed Record. Call it exactly once, at the end of
// the execution.
func (r *Recorder) Finalize(ctx hostctx.RequestContext, probes hostctx.Probes, now time.Time) Record {
	r.sched.Flush(now)

	totals := r.agg.Snapshot()
	breakdown := r.agg.GroupedExtensionTotals()
	total := now.Sub(ctx.StartTime).Seconds()

	rt := Runtime{
		Total:     total,
		Core:      totals.Core,
		Theme:     totals.Theme,
		Plugins:   totals.Extension,
		Profile:   totals.Overhead,
		Breakdown: breakdown,
	}

	// When the whole execution is a single extension or theme invocation (no
	// framework bootstrap ran), per-tick classification misattributes
	// bootstrap-adjacent time; attributing the entire span makes these cases
	// exact.
	switch {
	case r.paths.IsExtensionFile(ctx.ScriptPath):
		attributed := total - totals.Overhead
		rt.Core = 0
		rt.Theme = 0
		rt.Plugins = attributed
		rt.Breakdown = map[string]float64{r.paths.ExtensionID(ctx.ScriptPath): attributed}
	case r.paths.IsThemeFile(ctx.ScriptPath):
		attributed := total - totals.Overhead
		rt.Core = 0
		rt.Plugins = 0
		rt.Theme = attributed
		rt.Breakdown = map[string]float64{}
	}

	rec := Record{
		ID:               uuid.NewString(),
		URL:              ctx.URL,
		ClientIP:         ctx.ClientIP,
		PID:              ctx.PID,
		Date:             now.Format(time.RFC3339),
		Runtime:          rt,
		StackSwitchCount: r.agg.SampleCount(),
	}
	if probes.MemoryPeak != nil {
		rec.MemoryPeakBytes = probes.MemoryPeak()
	}
	if probes.QueryCount != nil {
		rec.QueryCount = probes.QueryCount()
	}
	return rec
}
