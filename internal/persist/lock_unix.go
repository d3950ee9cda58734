//go:build unix

package persist

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryLock attempts to take an exclusive advisory lock without blocking.
func tryLock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

// releaseLock drops the advisory lock.
func releaseLock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// lockContended reports whether the lock failure means another writer holds
// the lock, i.e. retrying may help.
func lockContended(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}
