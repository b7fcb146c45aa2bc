package state

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/quillfold/statekit/mapping"
)

// State is a persistent hierarchical mapping. The zero value is not usable;
// construct with New or NewWith.
//
// State performs no internal locking. Within one process, callers must
// serialize concurrent access themselves; across processes, use Handler.
type State struct {
	m       *mapping.Mapping
	changed map[string]struct{}

	filename   string
	lazy       bool
	raiseIOErr bool

	log *slog.Logger
}

// Options parametrizes a State.
type Options struct {
	// Logger receives debug/info diagnostics. Nil discards them; logging is
	// best-effort and never affects the state's behavior.
	Logger *slog.Logger
}

// New returns a fresh, empty, unbound state.
func New() *State {
	return NewWith(Options{})
}

// NewWith returns a fresh state with the given options.
func NewWith(o Options) *State {
	log := o.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &State{
		m:          mapping.New(),
		changed:    make(map[string]struct{}),
		raiseIOErr: true,
		log:        log,
	}
}

// Reset discards all contents and bindings, returning the state to fresh.
func (s *State) Reset() {
	s.m = mapping.New()
	s.changed = make(map[string]struct{})
	s.filename = ""
	s.lazy = false
	s.raiseIOErr = true
}

// Filename returns the container path the state is bound to, if any.
func (s *State) Filename() string { return s.filename }

// Lazy reports whether the state defers value reads to first access.
func (s *State) Lazy() bool { return s.lazy }

// Set stores value under key and marks it changed.
func (s *State) Set(key string, value any) error {
	if err := s.m.Set(key, value); err != nil {
		return wrapMapping(err)
	}
	s.changed[key] = struct{}{}
	return nil
}

// Get returns the value stored under key.
//
// Unloaded values are read from the backing container transparently. If key
// names a whole section, its subtree is fully materialized first and a
// prefix-scoped view is returned. Tombstoned keys report ErrNotFound.
func (s *State) Get(key string) (any, error) {
	v, err := s.m.Get(key)
	if err != nil {
		if mapping.IsNotFound(err) && s.lazy && s.filename != "" {
			return s.lazyLoad(key)
		}
		return nil, wrapMapping(err)
	}
	switch v.(type) {
	case deletedLeaf:
		return nil, &Error{Kind: ErrKindNotFound, Msg: fmt.Sprintf("state: key %q not found", key)}
	case unloadedLeaf:
		return s.lazyLoad(key)
	case *mapping.Section:
		if s.lazy && s.filename != "" {
			if err := s.materialize(key); err != nil {
				return nil, err
			}
		}
		return s.Sub(key), nil
	default:
		return v, nil
	}
}

// GetDefault returns the value stored under key, or def when the key is
// absent. Other errors are returned as-is.
func (s *State) GetDefault(key string, def any) (any, error) {
	v, err := s.Get(key)
	if err == nil {
		return v, nil
	}
	if IsNotFound(err) {
		return def, nil
	}
	return nil, err
}

// GetOrSet returns the value stored under key, or stores and returns def
// when the key is absent.
func (s *State) GetOrSet(key string, def any) (any, error) {
	v, err := s.Get(key)
	if err == nil {
		return v, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	if err := s.Set(key, def); err != nil {
		return nil, err
	}
	return def, nil
}

// Delete tombstones the leaf stored under key. Observers see the key as
// absent immediately; the container entry is purged on the next Save.
// Repeated deletes before a save are idempotent.
func (s *State) Delete(key string) error {
	v, err := s.m.Get(key)
	if err != nil {
		return wrapMapping(err)
	}
	switch v.(type) {
	case deletedLeaf:
		return nil
	case *mapping.Section:
		return &Error{Kind: ErrKindConflict, Msg: fmt.Sprintf("state: %q is a section, not a value", key)}
	}
	if err := s.m.Set(key, deleted); err != nil {
		return wrapMapping(err)
	}
	s.changed[key] = struct{}{}
	return nil
}

// Contains reports whether key resolves to a live leaf. No lazy value read
// is performed; structural presence from the skeleton load is enough.
func (s *State) Contains(key string) bool {
	v, err := s.m.Get(key)
	if err != nil {
		return false
	}
	switch v.(type) {
	case deletedLeaf, *mapping.Section:
		return false
	}
	return true
}

// Keys returns every live leaf's full dotted path in section insertion
// order. Tombstoned keys are excluded; unloaded keys are included without
// forcing a value read.
func (s *State) Keys() []string {
	var keys []string
	_ = s.m.Walk(func(key string, value any) error {
		if _, gone := value.(deletedLeaf); gone {
			return nil
		}
		keys = append(keys, key)
		return nil
	})
	return keys
}

// Len returns the number of live leaves.
func (s *State) Len() int { return len(s.Keys()) }

// Changed returns the keys written since the last successful Save.
func (s *State) Changed() []string {
	keys := make([]string, 0, len(s.changed))
	for k := range s.changed {
		keys = append(keys, k)
	}
	return keys
}

// NeedSaving reports whether a Save would write anything: false for an empty
// tree or when nothing changed since the last persist.
func (s *State) NeedSaving() bool {
	if s.m.Len() == 0 {
		s.log.Debug("no need to save empty state")
		return false
	}
	if len(s.changed) == 0 {
		s.log.Debug("no need to save unchanged state")
		return false
	}
	return true
}

// Show fully materializes any deferred values, then pretty-prints the tree
// to w. Tombstoned entries are not printed.
func (s *State) Show(w io.Writer) error {
	if s.lazy && s.filename != "" {
		if err := s.materialize(""); err != nil {
			return err
		}
		s.lazy = false
	}
	disp := mapping.New()
	err := s.m.Walk(func(key string, value any) error {
		switch value.(type) {
		case deletedLeaf, unloadedLeaf:
			return nil
		}
		return disp.Set(key, value)
	})
	if err != nil {
		return err
	}
	disp.Show(w)
	return nil
}

// wrapMapping lifts mapping errors into the package taxonomy.
func wrapMapping(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mapping.ErrNotFound):
		return &Error{Kind: ErrKindNotFound, Msg: "state: key not found", Err: err}
	case errors.Is(err, mapping.ErrMalformedKey):
		return &Error{Kind: ErrKindMalformedKey, Msg: "state: malformed key", Err: err}
	case errors.Is(err, mapping.ErrConflict):
		return &Error{Kind: ErrKindConflict, Msg: "state: leaf/section conflict", Err: err}
	default:
		return err
	}
}

// Package-level default instance with an explicit init/reset lifecycle, for
// harness glue that wants one state per process. Library code should prefer
// an explicitly owned instance from New.
var (
	defaultMu sync.Mutex
	defaultSt *State
)

// Default returns the process-wide state, creating it on first use.
func Default() *State {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSt == nil {
		defaultSt = New()
	}
	return defaultSt
}

// ResetDefault discards the process-wide state; the next Default call
// builds a fresh one.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSt = nil
}
