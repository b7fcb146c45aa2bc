package format

import (
	"fmt"
	"strings"

	"github.com/quillfold/statekit/internal/buf"
)

// Entry is one node of the container's structural index: either a named
// group with ordered children, or a leaf describing a payload cell.
type Entry struct {
	Name string
	Kind Kind

	// Leaf fields (zero for groups).
	Codec      Codec
	Offset     uint64 // absolute file offset of the payload cell
	StoredSize uint32 // bytes on disk
	RawSize    uint32 // bytes after decompression

	children []*Entry
	byName   map[string]*Entry
}

// IsGroup reports whether the entry is a nested group.
func (e *Entry) IsGroup() bool { return e.Kind == KindGroup }

// Children returns the ordered child entries of a group.
func (e *Entry) Children() []*Entry { return e.children }

// Child returns the named child of a group.
func (e *Entry) Child(name string) (*Entry, bool) {
	if e.byName == nil {
		return nil, false
	}
	c, ok := e.byName[name]
	return c, ok
}

// Lookup descends the group tree along segments and returns the entry found
// at the end of the path.
func (e *Entry) Lookup(segments []string) (*Entry, error) {
	cur := e
	for i, seg := range segments {
		if !cur.IsGroup() {
			return nil, fmt.Errorf("%w: %q is not a group",
				ErrNotFound, strings.Join(segments[:i], "/"))
		}
		next, ok := cur.Child(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q",
				ErrNotFound, strings.Join(segments[:i+1], "/"))
		}
		cur = next
	}
	return cur, nil
}

func newGroup(name string) *Entry {
	return &Entry{Name: name, Kind: KindGroup, byName: make(map[string]*Entry)}
}

// add attaches child to group e, replacing any previous child with the same
// name while preserving its position.
func (e *Entry) add(child *Entry) {
	if prev, ok := e.byName[child.Name]; ok {
		for i, c := range e.children {
			if c == prev {
				e.children[i] = child
				break
			}
		}
		e.byName[child.Name] = child
		return
	}
	e.children = append(e.children, child)
	e.byName[child.Name] = child
}

// group returns the named child group of e, creating it on demand.
func (e *Entry) group(name string) (*Entry, error) {
	if existing, ok := e.Child(name); ok {
		if !existing.IsGroup() {
			return nil, fmt.Errorf("format: %q exists as a %s, not a group",
				name, existing.Kind)
		}
		return existing, nil
	}
	g := newGroup(name)
	e.add(g)
	return g, nil
}

// leafCount counts the leaf entries below e.
func (e *Entry) leafCount() uint64 {
	if !e.IsGroup() {
		return 1
	}
	var n uint64
	for _, c := range e.children {
		n += c.leafCount()
	}
	return n
}

// encodeIndex serializes the group tree rooted at root (the root itself is
// implicit; only its children are recorded).
func encodeIndex(root *Entry) []byte {
	var b []byte
	for _, c := range root.children {
		b = appendEntry(b, c)
	}
	b = append(b, byte(kindEnd))
	return b
}

func appendEntry(b []byte, e *Entry) []byte {
	b = append(b, byte(e.Kind))
	b = AppendU16(b, uint16(len(e.Name)))
	b = append(b, e.Name...)
	if e.IsGroup() {
		for _, c := range e.children {
			b = appendEntry(b, c)
		}
		return append(b, byte(kindEnd))
	}
	b = append(b, byte(e.Codec))
	b = AppendU64(b, e.Offset)
	b = AppendU32(b, e.StoredSize)
	b = AppendU32(b, e.RawSize)
	return b
}

// parseIndex rebuilds the group tree from a serialized index block.
func parseIndex(b []byte) (*Entry, error) {
	root := newGroup("")
	pos, err := parseGroupBody(b, 0, root)
	if err != nil {
		return nil, err
	}
	if pos != len(b) {
		return nil, fmt.Errorf("%w: %d trailing index bytes", ErrTruncated, len(b)-pos)
	}
	return root, nil
}

func parseGroupBody(b []byte, pos int, group *Entry) (int, error) {
	for {
		if pos >= len(b) {
			return 0, fmt.Errorf("%w: unterminated group %q", ErrTruncated, group.Name)
		}
		kind := Kind(b[pos])
		pos++
		if kind == kindEnd {
			return pos, nil
		}
		name, next, err := parseName(b, pos)
		if err != nil {
			return 0, err
		}
		pos = next
		switch kind {
		case KindGroup:
			g := newGroup(name)
			group.add(g)
			pos, err = parseGroupBody(b, pos, g)
			if err != nil {
				return 0, err
			}
		case KindArray, KindBlob:
			if !buf.Has(b, pos, 17) {
				return 0, fmt.Errorf("%w: leaf record %q", ErrTruncated, name)
			}
			e := &Entry{
				Name:       name,
				Kind:       kind,
				Codec:      Codec(b[pos]),
				Offset:     ReadU64(b, pos+1),
				StoredSize: ReadU32(b, pos+9),
				RawSize:    ReadU32(b, pos+13),
			}
			pos += 17
			group.add(e)
		default:
			return 0, fmt.Errorf("%w: %d in group %q", ErrBadKind, kind, group.Name)
		}
	}
}

func parseName(b []byte, pos int) (string, int, error) {
	if !buf.Has(b, pos, 2) {
		return "", 0, fmt.Errorf("%w: name length", ErrTruncated)
	}
	n := int(ReadU16(b, pos))
	pos += 2
	name, ok := buf.Slice(b, pos, n)
	if !ok {
		return "", 0, fmt.Errorf("%w: name bytes", ErrTruncated)
	}
	return string(name), pos + n, nil
}
