package mapping

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator joins the hierarchy levels in a flat key.
const Separator = "."

// reserved characters may not appear inside a single path segment. The slash
// is structurally significant in the persisted container format.
const reserved = "/"

// Mapping is a flat string-keyed view over a tree of nested sections.
// The zero value is not usable; construct with New.
type Mapping struct {
	base *Section
}

// New returns an empty mapping.
func New() *Mapping {
	return &Mapping{base: newSection()}
}

// Base returns the root section of the mapping.
func (m *Mapping) Base() *Section { return m.base }

// SplitKey validates key and splits it into its path segments.
func SplitKey(key string) ([]string, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedKey)
	}
	segments := strings.Split(key, Separator)
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrMalformedKey, key)
		}
		if strings.ContainsAny(seg, reserved) {
			return nil, fmt.Errorf("%w: reserved character in segment %q", ErrMalformedKey, seg)
		}
	}
	return segments, nil
}

// descend walks the sections down to the parent of the final segment.
// With create set, missing intermediate sections are created on the way.
func (m *Mapping) descend(segments []string, create bool) (*Section, string, error) {
	sect := m.base
	for i := 0; i < len(segments)-1; i++ {
		child, ok := sect.child(segments[i])
		switch {
		case !ok && !create:
			return nil, "", fmt.Errorf("%w: section %q does not exist",
				ErrNotFound, strings.Join(segments[:i+1], Separator))
		case !ok:
			child = sectionNode()
			sect.put(segments[i], child)
		case !child.isSection():
			return nil, "", fmt.Errorf("%w: %q is a value, not a section",
				ErrConflict, strings.Join(segments[:i+1], Separator))
		}
		sect = child.sect
	}
	return sect, segments[len(segments)-1], nil
}

// Get returns the value stored under key. If key names a whole section, the
// *Section itself is returned. Returns ErrNotFound when any path segment is
// missing.
func (m *Mapping) Get(key string) (any, error) {
	segments, err := SplitKey(key)
	if err != nil {
		return nil, err
	}
	sect, last, err := m.descend(segments, false)
	if err != nil {
		return nil, err
	}
	n, ok := sect.child(last)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if n.isSection() {
		return n.sect, nil
	}
	return n.value, nil
}

// Set stores value under key, creating missing intermediate sections.
// Overwriting an existing leaf is allowed; replacing a section with a leaf
// (or descending through a leaf) is ErrConflict.
func (m *Mapping) Set(key string, value any) error {
	segments, err := SplitKey(key)
	if err != nil {
		return err
	}
	sect, last, err := m.descend(segments, true)
	if err != nil {
		return err
	}
	if existing, ok := sect.child(last); ok && existing.isSection() {
		return fmt.Errorf("%w: %q is a section, cannot assign a value", ErrConflict, key)
	}
	sect.put(last, leafNode(value))
	return nil
}

// Delete removes the leaf stored under key. Deleting a section or a missing
// key is an error.
func (m *Mapping) Delete(key string) error {
	segments, err := SplitKey(key)
	if err != nil {
		return err
	}
	sect, last, err := m.descend(segments, false)
	if err != nil {
		return err
	}
	n, ok := sect.child(last)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if n.isSection() {
		return fmt.Errorf("%w: %q is a section, not a value", ErrConflict, key)
	}
	sect.remove(last)
	return nil
}

// Contains reports whether key resolves to a stored leaf.
func (m *Mapping) Contains(key string) bool {
	segments, err := SplitKey(key)
	if err != nil {
		return false
	}
	sect, last, err := m.descend(segments, false)
	if err != nil {
		return false
	}
	n, ok := sect.child(last)
	return ok && !n.isSection()
}

// Walk visits every leaf in depth-first pre-order, section insertion order,
// calling fn with the full dotted key and the stored value. A non-nil error
// from fn aborts the walk and is returned. Mutating the mapping during a
// walk is undefined.
func (m *Mapping) Walk(fn func(key string, value any) error) error {
	return walkSection(m.base, "", fn)
}

func walkSection(s *Section, prefix string, fn func(string, any) error) error {
	for _, name := range s.names {
		n := s.children[name]
		key := name
		if prefix != "" {
			key = prefix + Separator + name
		}
		if n.isSection() {
			if err := walkSection(n.sect, key, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(key, n.value); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns every leaf's full dotted path. Each call performs a fresh
// traversal.
func (m *Mapping) Keys() []string {
	var keys []string
	_ = m.Walk(func(key string, _ any) error {
		keys = append(keys, key)
		return nil
	})
	return keys
}

// Len returns the number of leaves in the mapping.
func (m *Mapping) Len() int {
	n := 0
	_ = m.Walk(func(string, any) error {
		n++
		return nil
	})
	return n
}

// Merge copies every key of other that is not already present. Existing
// values in m take precedence.
func (m *Mapping) Merge(other *Mapping) error {
	return other.Walk(func(key string, value any) error {
		if m.Contains(key) {
			return nil
		}
		return m.Set(key, value)
	})
}

// GetOrSet returns the value stored under key, or stores and returns def
// when the key is absent. Errors other than ErrNotFound are returned as-is.
func (m *Mapping) GetOrSet(key string, def any) (any, error) {
	v, err := m.Get(key)
	if err == nil {
		return v, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	if err := m.Set(key, def); err != nil {
		return nil, err
	}
	return def, nil
}

// IsNotFound reports whether err is a missing-key error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Show pretty-prints the mapping to w, bracketing section names and
// indenting each nesting level.
func (m *Mapping) Show(w io.Writer) {
	showSection(w, m.base, " ")
}

func showSection(w io.Writer, s *Section, prefix string) {
	for _, name := range s.names {
		n := s.children[name]
		if n.isSection() {
			fmt.Fprintf(w, "%s[%s]\n", prefix, name)
			showSection(w, n.sect, prefix+"  ")
			continue
		}
		fmt.Fprintf(w, "%s%s: %v\n", prefix, name, n.value)
	}
}
