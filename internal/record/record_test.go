package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerprof/layerprof/internal/aggregate"
	"github.com/layerprof/layerprof/internal/hostctx"
	"github.com/layerprof/layerprof/internal/pathclass"
	"github.com/layerprof/layerprof/internal/sampler"
	"github.com/layerprof/layerprof/internal/stack"
	"github.com/layerprof/layerprof/internal/testutil"
)

const contentRoot = "/var/www/wp-content"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	clk    *fakeClock
	sched  *sampler.Scheduler
	agg    *aggregate.Aggregator
	rec    *Recorder
	stacks [][]stack.Frame
	gate   bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clk:  &fakeClock{t: time.Unix(1700000000, 0)},
		gate: true,
	}
	paths := pathclass.New(pathclass.DefaultLayout(contentRoot))
	f.agg = aggregate.New()
	f.sched = sampler.New(sampler.Config{
		Aggregator:  f.agg,
		Categorizer: stack.NewCategorizer(paths),
		Frames: func() []stack.Frame {
			if len(f.stacks) == 0 {
				return nil
			}
			s := f.stacks[0]
			f.stacks = f.stacks[1:]
			return s
		},
		Gate: func() bool { return f.gate },
		Now:  f.clk.Now,
	}, testutil.NewTestLogger(t))
	f.sched.Start(f.clk.Now())
	f.rec = NewRecorder(paths, f.agg, f.sched)
	return f
}

func coreFrames() []stack.Frame {
	return []stack.Frame{
		{File: "/var/www/wp-includes/query.php"},
		{File: "/var/www/wp-includes/class-wp.php"},
		{File: "/var/www/index.php"},
	}
}

func extFrames(id string) []stack.Frame {
	return []stack.Frame{
		{File: contentRoot + "/plugins/" + id + "/" + id + ".php"},
		{File: "/var/www/wp-includes/plugin.php"},
		{File: "/var/www/index.php"},
	}
}

// End-to-end tick scenario: CORE 10ms, EXTENSION "alpha" 5ms, one gated tick
// worth 3ms, and a trailing CORE 2ms tail flushed at finalize.
func TestFinalize_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := hostctx.RequestContext{
		URL:        "https://example.test/?p=1",
		ClientIP:   "203.0.113.7",
		ScriptPath: "/var/www/index.php",
		PID:        4242,
		StartTime:  f.clk.Now(),
	}

	f.stacks = [][]stack.Frame{extFrames("alpha"), coreFrames()}

	f.clk.Advance(10 * time.Millisecond)
	f.sched.Tick() // core 10ms, pending -> alpha
	f.clk.Advance(5 * time.Millisecond)
	f.sched.Tick() // alpha 5ms, pending -> core

	f.gate = false
	f.clk.Advance(3 * time.Millisecond)
	f.sched.Tick() // gated: overhead 3ms
	f.gate = true

	f.clk.Advance(2 * time.Millisecond)
	rec := f.rec.Finalize(ctx, hostctx.Probes{
		MemoryPeak: func() uint64 { return 32 << 20 },
		QueryCount: func() int { return 17 },
	}, f.clk.Now())

	assert.InDelta(t, 0.012, rec.Runtime.Core, 1e-9)
	assert.InDelta(t, 0.005, rec.Runtime.Plugins, 1e-9)
	assert.InDelta(t, 0.003, rec.Runtime.Profile, 1e-9)
	assert.Zero(t, rec.Runtime.Theme)
	require.Len(t, rec.Runtime.Breakdown, 1)
	assert.InDelta(t, 0.005, rec.Runtime.Breakdown["alpha"], 1e-9)

	assert.InDelta(t, 0.020, rec.Runtime.Total, 1e-9)
	sum := rec.Runtime.Core + rec.Runtime.Theme + rec.Runtime.Plugins + rec.Runtime.Profile
	assert.InDelta(t, rec.Runtime.Total, sum, 1e-9, "no interval may be dropped or double-counted")

	assert.Equal(t, "https://example.test/?p=1", rec.URL)
	assert.Equal(t, "203.0.113.7", rec.ClientIP)
	assert.Equal(t, 4242, rec.PID)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, uint64(32<<20), rec.MemoryPeakBytes)
	assert.Equal(t, 17, rec.QueryCount)
	assert.Equal(t, 1, rec.StackSwitchCount)
}

func TestFinalize_WholeScriptExtensionOverride(t *testing.T) {
	f := newFixture(t)
	ctx := hostctx.RequestContext{
		ScriptPath: contentRoot + "/plugins/exporter/cron.php",
		StartTime:  f.clk.Now(),
	}

	// Per-tick classification saw only core; the override corrects it.
	f.stacks = [][]stack.Frame{coreFrames()}
	f.clk.Advance(8 * time.Millisecond)
	f.sched.Tick()

	f.gate = false
	f.clk.Advance(1 * time.Millisecond)
	f.sched.Tick() // 1ms overhead
	f.gate = true

	f.clk.Advance(3 * time.Millisecond)
	rec := f.rec.Finalize(ctx, hostctx.Probes{}, f.clk.Now())

	assert.Zero(t, rec.Runtime.Core)
	assert.Zero(t, rec.Runtime.Theme)
	assert.InDelta(t, 0.011, rec.Runtime.Plugins, 1e-9, "total minus overhead")
	require.Len(t, rec.Runtime.Breakdown, 1)
	assert.InDelta(t, rec.Runtime.Plugins, rec.Runtime.Breakdown["exporter"], 1e-9)
}

func TestFinalize_WholeScriptThemeOverride(t *testing.T) {
	f := newFixture(t)
	ctx := hostctx.RequestContext{
		ScriptPath: contentRoot + "/themes/twenty/ajax.php",
		StartTime:  f.clk.Now(),
	}

	f.stacks = [][]stack.Frame{extFrames("alpha")}
	f.clk.Advance(4 * time.Millisecond)
	f.sched.Tick()
	f.clk.Advance(6 * time.Millisecond)
	rec := f.rec.Finalize(ctx, hostctx.Probes{}, f.clk.Now())

	assert.Zero(t, rec.Runtime.Core)
	assert.Zero(t, rec.Runtime.Plugins)
	assert.InDelta(t, 0.010, rec.Runtime.Theme, 1e-9)
	assert.Empty(t, rec.Runtime.Breakdown)
}

func TestRecord_WireSchema(t *testing.T) {
	rec := Record{
		ID:       "r-1",
		URL:      "https://example.test/",
		ClientIP: "203.0.113.7",
		PID:      7,
		Date:     "2026-08-30T12:00:00Z",
		Runtime: Runtime{
			Total:     0.02,
			Core:      0.012,
			Plugins:   0.005,
			Profile:   0.003,
			Breakdown: map[string]float64{"alpha": 0.005},
		},
		MemoryPeakBytes:  1024,
		StackSwitchCount: 1,
		QueryCount:       2,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Wire names are a contract with existing consumers.
	for _, key := range []string{"id", "url", "ip", "pid", "date", "runtime", "memory", "stack_count", "queries"} {
		assert.Contains(t, decoded, key)
	}
	runtime, ok := decoded["runtime"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"total", "wordpress", "theme", "plugins", "profile", "breakdown"} {
		assert.Contains(t, runtime, key)
	}
}
