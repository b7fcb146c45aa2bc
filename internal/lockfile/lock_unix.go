//go:build linux || darwin

package lockfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryAcquire opens the lock file and attempts a non-blocking exclusive
// flock. The lock file itself persists across acquisitions; the flock is
// what carries exclusivity.
func (l *Lock) tryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return false, nil
		}
		return false, err
	}
	l.f = f
	l.stamp()
	return true, nil
}

func (l *Lock) release() error {
	if l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	l.f = nil
	if err != nil {
		return err
	}
	return closeErr
}
