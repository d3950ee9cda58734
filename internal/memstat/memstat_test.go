package memstat

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeakRSS_Self(t *testing.T) {
	peak, err := PeakRSS(os.Getpid())
	require.NoError(t, err)
	assert.Positive(t, peak, "a running process has a nonzero memory peak")
}

func TestProbe_SwallowsFailures(t *testing.T) {
	// PID that cannot exist.
	assert.Zero(t, Probe(-1)())
}

func TestProbe_Self(t *testing.T) {
	assert.Positive(t, Probe(os.Getpid())())
}
