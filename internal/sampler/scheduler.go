// Package sampler implements the tick-driven sampling loop.
//
// A call's category is only knowable once you can see into it (from the stack
// at the moment it is interrupted), but its duration is only knowable once it
// ends, which is visible at the next interruption. Attribution therefore runs
// one tick behind: each tick bills the elapsed interval to the category chosen
// at the previous tick, then classifies the current stack to decide what the
// next interval belongs to. The last pending sample must be flushed explicitly
// at finalize or it is silently lost.
//
// One Scheduler observes one sequential execution; there is no in-process
// concurrency and no lock.
package sampler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/layerprof/layerprof/internal/aggregate"
	"github.com/layerprof/layerprof/internal/stack"
)

// shallowStackDepth is the frame count at or below which a stack is not
// further distinguished and defaults to core, unless it already matched an
// extension.
const shallowStackDepth = 2

// GateFunc reports whether the current invocation is worth classifying.
// When it returns false the tick's elapsed time is billed to profiler
// overhead and classification is skipped entirely.
type GateFunc func() bool

// Config wires a Scheduler's collaborators.
type Config struct {
	// Aggregator receives billed intervals. Required.
	Aggregator *aggregate.Aggregator

	// Categorizer classifies the current stack. Required.
	Categorizer *stack.Categorizer

	// Frames supplies the current call stack, innermost first. Required.
	Frames stack.Provider

	// Gate decides whether a tick is relevant. A nil gate admits every tick.
	Gate GateFunc

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler runs the lag-one attribution protocol.
type Scheduler struct {
	agg    *aggregate.Aggregator
	cat    *stack.Categorizer
	frames stack.Provider
	gate   GateFunc
	now    func() time.Time
	logger zerolog.Logger

	lastCallStart   time.Time
	pendingCategory stack.Category
	pendingID       string
}

// New creates a Scheduler. Call Start before the first Tick.
func New(cfg Config, logger zerolog.Logger) *Scheduler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	gate := cfg.Gate
	if gate == nil {
		gate = func() bool { return true }
	}
	return &Scheduler{
		agg:    cfg.Aggregator,
		cat:    cfg.Categorizer,
		frames: cfg.Frames,
		gate:   gate,
		now:    now,
		logger: logger.With().Str("component", "sampler").Logger(),
	}
}

// Start arms the scheduler at the execution's start time. The first interval
// is pending against core, which is where bootstrap time belongs.
func (s *Scheduler) Start(at time.Time) {
	s.lastCallStart = at
	s.pendingCategory = stack.Core
	s.pendingID = ""
}

// Tick is invoked by the host at every interruption point.
func (s *Scheduler) Tick() {
	now := s.now()
	elapsed := now.Sub(s.lastCallStart).Seconds()

	// Irrelevant invocations skip classification entirely, but their time is
	// still accounted for honestly, as overhead.
	if !s.gate() {
		s.agg.BillOverhead(elapsed)
		s.lastCallStart = s.now()
		return
	}

	// Bill the interval that just ended to the category chosen last tick.
	s.agg.Bill(s.pendingCategory, elapsed, s.pendingID)
	s.pendingCategory, s.pendingID = stack.Core, ""

	// Decide what the next interval is billed to.
	frames := s.frames()
	cat, id := s.cat.Classify(frames)
	if len(frames) <= shallowStackDepth && cat != stack.Extension {
		cat, id = stack.Core, ""
	}
	s.pendingCategory, s.pendingID = cat, id

	// The scheduler's own time is overhead, not the host's.
	end := s.now()
	s.agg.BillOverhead(end.Sub(now).Seconds())
	s.lastCallStart = end
}

// Flush bills the final pending interval up to now. Called once at finalize;
// without it the tail since the last tick would be dropped.
func (s *Scheduler) Flush(now time.Time) {
	s.agg.Bill(s.pendingCategory, now.Sub(s.lastCallStart).Seconds(), s.pendingID)
	s.pendingCategory, s.pendingID = stack.Core, ""
	s.lastCallStart = now
}
