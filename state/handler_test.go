package state

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfold/statekit/internal/lockfile"
)

func TestHandlerCycle(t *testing.T) {
	path := stateFile(t)

	st := New()
	h := NewHandler(st, path, HandlerOptions{Load: true, Save: true})
	require.NoError(t, h.Begin())
	require.NoError(t, st.Set("a", 1))
	require.NoError(t, h.End())

	// The lock is free again and the write is durable.
	other := New()
	h2 := NewHandler(other, path, HandlerOptions{Load: true})
	require.NoError(t, h2.Begin())
	v, err := other.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, h2.End())
}

func TestHandlerLockExcludes(t *testing.T) {
	path := stateFile(t)

	first := NewHandler(New(), path, HandlerOptions{Load: true})
	require.NoError(t, first.Begin())

	second := NewHandler(New(), path, HandlerOptions{
		Load:    true,
		Timeout: 100 * time.Millisecond,
	})
	err := second.Begin()
	assert.ErrorIs(t, err, ErrLockTimeout)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, ErrKindLockTimeout, serr.Kind)

	require.NoError(t, first.End())
	require.NoError(t, second.Begin())
	require.NoError(t, second.End())
}

func TestHandlerSaveOnlyLocksAtEnd(t *testing.T) {
	path := stateFile(t)

	st := New()
	h := NewHandler(st, path, HandlerOptions{Save: true})
	require.NoError(t, h.Begin())

	// No load requested, so the lock is not held during the work phase.
	probe := lockfile.ForResource(path)
	require.NoError(t, probe.Acquire(0))
	require.NoError(t, probe.Release())

	require.NoError(t, st.Set("a", 1))
	require.NoError(t, h.End())
	assert.FileExists(t, path)
}

func TestWithRunsScopedCycle(t *testing.T) {
	path := stateFile(t)

	err := With(New(), path, HandlerOptions{Load: true, Save: true}, func(st *State) error {
		return st.Set("counter", 1)
	})
	require.NoError(t, err)

	err = With(New(), path, HandlerOptions{Load: true, Save: true}, func(st *State) error {
		v, err := st.Get("counter")
		if err != nil {
			return err
		}
		return st.Set("counter", v.(int)+1)
	})
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, loaded.Load(path, LoadOptions{Eager: true}))
	v, err := loaded.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestWithReleasesOnError(t *testing.T) {
	path := stateFile(t)
	boom := errors.New("boom")

	err := With(New(), path, HandlerOptions{Load: true, Save: true}, func(st *State) error {
		_ = st.Set("a", 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// fn's error wins, but End still ran: the state was saved and the lock
	// released.
	err = With(New(), path, HandlerOptions{Load: true}, func(st *State) error {
		_, err := st.Get("a")
		return err
	})
	require.NoError(t, err)
}

func TestWithReleasesOnPanic(t *testing.T) {
	path := stateFile(t)

	assert.Panics(t, func() {
		_ = With(New(), path, HandlerOptions{Load: true}, func(st *State) error {
			panic("kaboom")
		})
	})

	// The lock was not leaked.
	probe := lockfile.ForResource(path)
	require.NoError(t, probe.Acquire(0))
	require.NoError(t, probe.Release())
}

func TestHandlerRotation(t *testing.T) {
	path := stateFile(t)
	opts := HandlerOptions{Load: true, Save: true, RotateN: 1}

	for _, v := range []string{"first", "second"} {
		err := With(New(), path, opts, func(st *State) error {
			return st.Set("v", v)
		})
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
}
