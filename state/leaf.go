package state

// Leaf values live in one of three states. Present values are stored
// directly in the tree; the other two are marker types so every call site
// discriminates them with a type switch instead of identity comparison.

// unloadedLeaf marks a key known to exist in the backing container whose
// value has not been read yet.
type unloadedLeaf struct{}

// deletedLeaf is the tombstone for a removed key. It keeps the deletion
// visible in memory and instructs the next Save to purge the entry from the
// container.
type deletedLeaf struct{}

var (
	unloaded = unloadedLeaf{}
	deleted  = deletedLeaf{}
)
