// Package hostctx carries the request-scoped facts the profiler consumes from
// its host, collected once up front instead of read piecemeal from ambient
// state.
package hostctx

import (
	"strings"
	"time"
)

// RequestContext is the immutable description of one profiled execution.
// It is built once when the profiler is constructed and passed by value.
type RequestContext struct {
	// URL is the request URL or a host-chosen label for non-HTTP work.
	URL string

	// ClientIP is the requesting client's address, forwarded-for aware.
	ClientIP string

	// ScriptPath is the absolute path of the executing entry script.
	ScriptPath string

	// PID is the OS process id of the execution.
	PID int

	// StartTime is when the execution began.
	StartTime time.Time

	// ThemedRender is true when the host will render through the theme layer.
	ThemedRender bool

	// BackgroundJob is true for scheduled/background invocations.
	BackgroundJob bool

	// Admin is true for administrative contexts.
	Admin bool
}

// Probes supplies the end-of-execution counters the host exposes. Fields may
// be nil; callers fall back to process-level measurements or zero.
type Probes struct {
	// MemoryPeak returns the peak memory usage of the execution in bytes.
	MemoryPeak func() uint64

	// QueryCount returns the number of database queries issued.
	QueryCount func() int
}

// ClientIP picks the client address, preferring the first entry of a
// forwarded-for header over the transport-level remote address.
func ClientIP(remoteAddr, forwardedFor string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if i := strings.IndexByte(forwardedFor, ','); i >= 0 {
			first = forwardedFor[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	// Strip a :port suffix if present on the remote address.
	if i := strings.LastIndexByte(remoteAddr, ':'); i >= 0 && strings.Count(remoteAddr, ":") == 1 {
		return remoteAddr[:i]
	}
	return remoteAddr
}
