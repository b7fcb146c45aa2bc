// Package mapping provides a flat, dot-separated interface over nested
// string-keyed sections.
//
// A Mapping behaves like an ordinary map from strings to values, but keys
// containing the separator character ('.') address values stored in a
// hierarchy of nested sections. Setting "trainer.epoch" creates a "trainer"
// section holding an "epoch" leaf; enumerating keys yields full dotted paths
// in section insertion order.
//
// The tree is built from explicitly tagged nodes: a node is either a leaf
// carrying a value, or a section carrying ordered children. A path may not
// name both (setting "a" and then "a.b" is a conflict, and vice versa).
//
// Mapping does no I/O and is not safe for concurrent mutation; see the state
// package for persistence and cross-process coordination.
package mapping
