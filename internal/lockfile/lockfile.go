// Package lockfile implements an advisory inter-process file lock with
// bounded-wait acquisition.
//
// The lock guards a sibling "<path>.lock" file next to the resource it
// protects. It is advisory: only cooperating processes that take the lock
// are excluded. On unix platforms the lock is a flock(2) on the lock file;
// elsewhere an exclusive-create scheme is used. The lock file records the
// holder's token and pid for diagnostics.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrTimeout indicates the lock could not be acquired within the bounded
// wait.
var ErrTimeout = errors.New("lockfile: timed out waiting for lock")

// Suffix is appended to a resource path to derive its lock file path.
const Suffix = ".lock"

// pollInterval is the retry cadence while waiting for a contended lock.
const pollInterval = 50 * time.Millisecond

// Lock is an advisory whole-file lock. Not safe for concurrent use by
// multiple goroutines; each goroutine should hold its own Lock.
type Lock struct {
	path  string
	owner string
	f     *os.File
	held  bool
}

// ForResource returns a lock guarding the resource at path, placing the lock
// file alongside it.
func ForResource(path string) *Lock {
	return New(path + Suffix)
}

// New returns a lock on the given lock file path.
func New(path string) *Lock {
	return &Lock{path: path, owner: uuid.NewString()}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Held reports whether this Lock currently holds the file lock.
func (l *Lock) Held() bool { return l.held }

// Acquire takes the lock, waiting up to timeout for a competing holder to
// release it. A zero or negative timeout tries exactly once.
func (l *Lock) Acquire(timeout time.Duration) error {
	if l.held {
		return nil
	}
	deadline := time.Now().Add(timeout)
	for {
		ok, err := l.tryAcquire()
		if err != nil {
			return fmt.Errorf("lockfile: %s: %w", l.path, err)
		}
		if ok {
			l.held = true
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s is locked by another process", ErrTimeout, l.path)
		}
		time.Sleep(pollInterval)
	}
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	err := l.release()
	l.held = false
	return err
}

// stamp records the holder's identity in the lock file for diagnostics.
func (l *Lock) stamp() {
	if l.f == nil {
		return
	}
	_ = l.f.Truncate(0)
	_, _ = fmt.Fprintf(l.f, "%s %d\n", l.owner, os.Getpid())
}
