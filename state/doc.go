// Package state provides persistent, hierarchical key-value state for
// experiment and batch workloads.
//
// # Overview
//
// A State is a dotted-key mapping (see the mapping package) extended with
// change tracking and persistence against an SKST container file. Writes
// mark keys changed; Save walks the in-memory tree and rewrites the
// container, rotating previous generations under numbered suffixes. Load
// always reads the container's structural skeleton eagerly, and in lazy mode
// (the default) defers every value read until first access.
//
// Each leaf is in one of three states: present (an ordinary value), unloaded
// (known to exist in the backing file, not yet read), or deleted (a
// tombstone recorded so the next Save purges the entry from disk). Unloaded
// leaves count toward Keys and Len; tombstoned leaves are invisible to Get,
// Contains, and Keys, and disappear from the container on Save.
//
// # Typical usage
//
//	st := state.New()
//	if err := st.Load("run.state", state.LoadOptions{}); err != nil { ... }
//	st.Set("trainer.epoch", int64(3))
//	loss, err := st.Get("trainer.loss")
//	...
//	err = st.Save("run.state", state.SaveOptions{RotateN: 5})
//
// # Cross-process coordination
//
// The bare State is single-threaded: no internal goroutines, no mutexes.
// Handler wraps a load/work/save cycle in an advisory file lock so multiple
// processes can share one state file safely at save/load boundaries:
//
//	err := state.With(st, "run.state", state.HandlerOptions{Load: true, Save: true},
//		func(st *state.State) error {
//			n, _ := st.GetOrSet("runs", int64(0))
//			return st.Set("runs", n.(int64)+1)
//		})
//
// The lock protects only the save/load boundary, not individual reads or
// writes in between. In-process thread safety, where needed, is the caller's
// concern. For sharing a single owner's state with worker processes, see the
// remote package.
package state
