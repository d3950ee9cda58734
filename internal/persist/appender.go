// Package persist appends finalized profile records to the shared profile
// file.
//
// Many independent processes converge on one append-only file, so each write
// is guarded by an OS-level exclusive advisory lock acquired with a bounded
// retry budget. Persistence is best-effort by policy: when the budget runs
// out the record is dropped silently rather than blocking the caller's
// response path or risking a corrupt file.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/layerprof/layerprof/internal/retry"
)

// DefaultLockRetry is the default lock acquisition budget: 40 attempts at
// 50ms spacing, roughly two seconds worst case.
var DefaultLockRetry = retry.Config{
	MaxAttempts: 40,
	Interval:    50 * time.Millisecond,
}

// Appender writes one serialized record per line to a target file.
type Appender struct {
	path      string
	lockRetry retry.Config
	logger    zerolog.Logger
}

// NewAppender creates an Appender for the given target file. A zero lockRetry
// falls back to DefaultLockRetry.
func NewAppender(path string, lockRetry retry.Config, logger zerolog.Logger) *Appender {
	if lockRetry.MaxAttempts <= 0 {
		lockRetry = DefaultLockRetry
	}
	return &Appender{
		path:      path,
		lockRetry: lockRetry,
		logger:    logger.With().Str("component", "persist").Str("path", path).Logger(),
	}
}

// Path returns the target file path.
func (a *Appender) Path() string {
	return a.path
}

// Append serializes v and writes it as one newline-terminated line.
//
// The whole record is serialized before any write begins, so a failure can
// never leave a partial line behind. Failing to win the advisory lock within
// the retry budget drops the record and returns nil; only serialization and
// file errors surface to the caller.
func (a *Appender) Append(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open profile file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.Warn().Err(cerr).Msg("failed to close profile file")
		}
	}()

	if err := a.acquireLock(ctx, f); err != nil {
		a.logger.Debug().Err(err).Msg("lock budget exhausted, dropping record")
		return nil
	}
	defer func() {
		if uerr := releaseLock(f); uerr != nil {
			a.logger.Warn().Err(uerr).Msg("failed to release profile file lock")
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (a *Appender) acquireLock(ctx context.Context, f *os.File) error {
	return retry.Do(ctx, a.lockRetry, func() error {
		return tryLock(f)
	}, lockContended)
}
