package state

import (
	"strings"

	"github.com/quillfold/statekit/mapping"
)

// Substate is a view of the state scoped below a key prefix. All operations
// delegate to the underlying State with the prefix prepended, so a Substate
// shares storage, change tracking, and lazy loading with its parent.
//
// Views compose: Sub("a").Sub("b") addresses the same keys as Sub("a.b").
type Substate struct {
	st     *State
	prefix string
}

// Sub returns a view of the state scoped below prefix. The prefix does not
// need to exist yet; it is created on first Set.
func (s *State) Sub(prefix string) *Substate {
	return &Substate{st: s, prefix: prefix}
}

// Prefix returns the view's key prefix.
func (ss *Substate) Prefix() string { return ss.prefix }

// Sub returns a further-scoped view.
func (ss *Substate) Sub(prefix string) *Substate {
	return ss.st.Sub(ss.abs(prefix))
}

func (ss *Substate) abs(key string) string {
	if ss.prefix == "" {
		return key
	}
	return ss.prefix + mapping.Separator + key
}

// Get returns the value stored under the scoped key.
func (ss *Substate) Get(key string) (any, error) {
	return ss.st.Get(ss.abs(key))
}

// GetDefault returns the scoped value, or def when absent.
func (ss *Substate) GetDefault(key string, def any) (any, error) {
	return ss.st.GetDefault(ss.abs(key), def)
}

// GetOrSet returns the scoped value, or stores and returns def when absent.
func (ss *Substate) GetOrSet(key string, def any) (any, error) {
	return ss.st.GetOrSet(ss.abs(key), def)
}

// Set stores value under the scoped key.
func (ss *Substate) Set(key string, value any) error {
	return ss.st.Set(ss.abs(key), value)
}

// Delete tombstones the scoped key.
func (ss *Substate) Delete(key string) error {
	return ss.st.Delete(ss.abs(key))
}

// Contains reports whether the scoped key resolves to a live leaf.
func (ss *Substate) Contains(key string) bool {
	return ss.st.Contains(ss.abs(key))
}

// Keys returns the live leaf paths below the prefix, relative to it.
func (ss *Substate) Keys() []string {
	if ss.prefix == "" {
		return ss.st.Keys()
	}
	var keys []string
	cut := ss.prefix + mapping.Separator
	for _, key := range ss.st.Keys() {
		if rel, ok := strings.CutPrefix(key, cut); ok {
			keys = append(keys, rel)
		}
	}
	return keys
}

// Len returns the number of live leaves below the prefix.
func (ss *Substate) Len() int { return len(ss.Keys()) }
