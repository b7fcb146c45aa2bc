//go:build !linux && !darwin

package lockfile

import (
	"errors"
	"io/fs"
	"os"
)

// tryAcquire falls back to exclusive-create semantics on platforms without
// flock: whoever creates the lock file holds the lock until it is removed.
func (l *Lock) tryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
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
	closeErr := l.f.Close()
	l.f = nil
	if err := os.Remove(l.path); err != nil {
		return err
	}
	return closeErr
}
