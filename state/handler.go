package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/quillfold/statekit/internal/lockfile"
)

// DefaultLockTimeout bounds the wait for the cross-process state lock.
const DefaultLockTimeout = 10 * time.Second

// HandlerOptions controls a Handler's load/save cycle.
type HandlerOptions struct {
	// Load acquires the lock and loads the state (lazily, tolerating a
	// missing file) on Begin.
	Load bool
	// Save ensures the lock is held and saves the state on End.
	Save bool
	// Timeout bounds lock acquisition. Zero selects DefaultLockTimeout.
	Timeout time.Duration

	// RotateN and CompressionLevel are forwarded to Save.
	RotateN          int
	CompressionLevel int
}

// Handler wraps a State in an advisory inter-process file lock scoped to one
// load/work/save cycle. The lock's granularity is the whole state file; it
// excludes cooperating processes only and does not protect in-process
// concurrent access.
//
// Use Begin/End directly, or the With helper for a scoped closure.
type Handler struct {
	st   *State
	path string
	opts HandlerOptions
	lock *lockfile.Lock
}

// NewHandler returns a handler for the state file at path.
func NewHandler(st *State, path string, opts HandlerOptions) *Handler {
	return &Handler{
		st:   st,
		path: path,
		opts: opts,
		lock: lockfile.ForResource(path),
	}
}

// Begin starts the cycle. When configured to load, it acquires the lock
// (bounded wait) and loads the state lazily, tolerating a missing file.
func (h *Handler) Begin() error {
	if !h.opts.Load {
		return nil
	}
	if err := h.acquire(); err != nil {
		return err
	}
	if err := h.st.Load(h.path, LoadOptions{Tolerant: true}); err != nil {
		_ = h.lock.Release()
		return err
	}
	return nil
}

// End finishes the cycle. When configured to save, it ensures the lock is
// held and saves; the lock is always released afterwards, even when the save
// fails.
func (h *Handler) End() error {
	var saveErr error
	if h.opts.Save {
		saveErr = h.acquire()
		if saveErr == nil {
			saveErr = h.st.Save(h.path, SaveOptions{
				RotateN:          h.opts.RotateN,
				CompressionLevel: h.opts.CompressionLevel,
			})
		}
	}
	relErr := h.lock.Release()
	if saveErr != nil {
		return saveErr
	}
	if relErr != nil {
		return h.st.ioError("unlock", h.path, relErr)
	}
	return nil
}

func (h *Handler) acquire() error {
	if h.lock.Held() {
		return nil
	}
	timeout := h.opts.Timeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}
	if err := h.lock.Acquire(timeout); err != nil {
		if errors.Is(err, lockfile.ErrTimeout) {
			return &Error{
				Kind: ErrKindLockTimeout,
				Msg:  fmt.Sprintf("state: state file %q locked by another process", h.path),
				Err:  err,
			}
		}
		return h.st.ioError("lock", h.path, err)
	}
	return nil
}

// With runs fn between Begin and End. End always runs, even when fn returns
// an error or panics, so the lock is never leaked. fn's error takes
// precedence over End's.
func With(st *State, path string, opts HandlerOptions, fn func(*State) error) error {
	h := NewHandler(st, path, opts)
	if err := h.Begin(); err != nil {
		return err
	}
	var fnErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				_ = h.End()
				panic(r)
			}
		}()
		fnErr = fn(st)
	}()
	endErr := h.End()
	if fnErr != nil {
		return fnErr
	}
	return endErr
}
