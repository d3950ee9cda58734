// Package profiler is the public entry point of layerprof.
//
// A Profiler observes one sequential execution. The host invokes Tick at
// every interruption point and Finalize exactly once at the end; layerprof
// attributes the elapsed wall-clock time to host-framework ("core"), theme,
// or extension code and appends a one-line JSON summary to the shared profile
// file.
//
// Enablement is decided at construction from the flag resource: if the flag
// is absent, malformed, or does not match the client, the returned Profiler
// is inert and both hooks are near-zero-cost no-ops. The profiler must never
// be able to abort or alter the execution it observes, so every internal
// failure is swallowed after logging.
package profiler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/layerprof/layerprof/internal/aggregate"
	"github.com/layerprof/layerprof/internal/enable"
	"github.com/layerprof/layerprof/internal/hostctx"
	"github.com/layerprof/layerprof/internal/memstat"
	"github.com/layerprof/layerprof/internal/pathclass"
	"github.com/layerprof/layerprof/internal/persist"
	"github.com/layerprof/layerprof/internal/record"
	"github.com/layerprof/layerprof/internal/retry"
	"github.com/layerprof/layerprof/internal/sampler"
	"github.com/layerprof/layerprof/internal/stack"
)

// State is the profiler lifecycle state.
type State int

const (
	// Disabled means the enablement flag did not select this execution;
	// Tick and Finalize are no-ops.
	Disabled State = iota
	// Active means sampling is running.
	Active
	// Finalized means Finalize has run; further calls are no-ops.
	Finalized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	default:
		return "disabled"
	}
}

// Options configures a Profiler. The zero value is usable once FlagPath,
// ProfilesDir and Layout are set.
type Options struct {
	// FlagPath locates the enablement flag resource.
	FlagPath string

	// ProfilesDir is the directory profile files are appended under.
	ProfilesDir string

	// Layout describes the host's extension/theme directories.
	Layout pathclass.Layout

	// Probes supplies end-of-execution counters. A nil MemoryPeak falls back
	// to the process peak RSS; a nil QueryCount reports zero.
	Probes hostctx.Probes

	// Frames supplies call stacks; defaults to the Go runtime provider.
	Frames stack.Provider

	// Gate overrides the relevance predicate. The default admits ticks when
	// the request context signals a themed render, background job or admin
	// context, or when the entry script itself is an extension file.
	Gate sampler.GateFunc

	// Now overrides the clock (tests).
	Now func() time.Time

	// LockRetry bounds lock acquisition on the shared profile file.
	// Zero falls back to persist.DefaultLockRetry.
	LockRetry retry.Config

	// Logger receives profiler diagnostics; defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Profiler attributes one execution's wall-clock time across layers.
type Profiler struct {
	state  State
	reqCtx hostctx.RequestContext
	probes hostctx.Probes
	now    func() time.Time
	logger zerolog.Logger

	paths *pathclass.Classifier
	agg   *aggregate.Aggregator
	sched *sampler.Scheduler
	rec   *record.Recorder
	sink  *persist.Appender
}

// New constructs a Profiler for the given request. It reads the enablement
// flag once; any problem with the flag, or a client mismatch, yields an inert
// profiler and no error.
func New(reqCtx hostctx.RequestContext, opts Options) *Profiler {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	flag, err := enable.Load(opts.FlagPath)
	if err != nil {
		logger.Debug().Err(err).Msg("profiling disabled: no usable flag")
		return &Profiler{state: Disabled, logger: logger}
	}
	if !flag.Matches(reqCtx.ClientIP) {
		logger.Debug().Str("ip", reqCtx.ClientIP).Msg("profiling disabled: client not selected")
		return &Profiler{state: Disabled, logger: logger}
	}

	return NewActive(reqCtx, flag.ProfilePath(opts.ProfilesDir), opts)
}

// NewActive constructs a Profiler that samples unconditionally, writing to
// targetPath. Hosts that implement their own enablement policy use this
// directly; everyone else goes through New.
func NewActive(reqCtx hostctx.RequestContext, targetPath string, opts Options) *Profiler {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if reqCtx.StartTime.IsZero() {
		reqCtx.StartTime = now()
	}

	frames := opts.Frames
	if frames == nil {
		frames = stack.RuntimeProvider(1)
	}

	probes := opts.Probes
	if probes.MemoryPeak == nil {
		probes.MemoryPeak = memstat.Probe(reqCtx.PID)
	}

	p := &Profiler{
		state:  Active,
		reqCtx: reqCtx,
		probes: probes,
		now:    now,
		logger: logger,
		paths:  pathclass.New(opts.Layout),
		agg:    aggregate.New(),
	}

	gate := opts.Gate
	if gate == nil {
		gate = p.defaultGate
	}

	p.sched = sampler.New(sampler.Config{
		Aggregator:  p.agg,
		Categorizer: stack.NewCategorizer(p.paths),
		Frames:      frames,
		Gate:        gate,
		Now:         now,
	}, logger)
	p.sched.Start(reqCtx.StartTime)
	p.rec = record.NewRecorder(p.paths, p.agg, p.sched)
	p.sink = persist.NewAppender(targetPath, opts.LockRetry, logger)

	logger.Debug().
		Str("url", reqCtx.URL).
		Str("target", targetPath).
		Msg("profiling started")
	return p
}

// defaultGate mirrors the host execution modes worth classifying: themed
// renders, background jobs, admin screens, and entry scripts that are
// themselves extension files.
func (p *Profiler) defaultGate() bool {
	return p.reqCtx.ThemedRender ||
		p.reqCtx.BackgroundJob ||
		p.reqCtx.Admin ||
		p.paths.IsExtensionFile(p.reqCtx.ScriptPath)
}

// State returns the lifecycle state.
func (p *Profiler) State() State {
	return p.state
}

// Tick is the per-interruption hook. No-op unless Active.
func (p *Profiler) Tick() {
	if p.state != Active {
		return
	}
	p.sched.Tick()
}

// Finalize is the end-of-execution hook: it flushes the pending sample,
// builds the summary record and appends it to the profile file. It is a
// no-op unless the profiler actually started, and runs at most once.
//
// The returned record and true indicate a record was built; persistence
// failures are logged and swallowed, never surfaced to the host.
func (p *Profiler) Finalize(ctx context.Context) (record.Record, bool) {
	if p.state != Active {
		return record.Record{}, false
	}
	p.state = Finalized

	rec := p.rec.Finalize(p.reqCtx, p.probes, p.now())
	if err := p.sink.Append(ctx, rec); err != nil {
		p.logger.Warn().Err(err).Msg("failed to persist profile record")
	}
	return rec, true
}
