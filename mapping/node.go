package mapping

// NodeKind discriminates the two tree node variants.
type NodeKind uint8

const (
	// KindLeaf marks a node holding a caller value.
	KindLeaf NodeKind = iota
	// KindSection marks a node holding ordered child nodes.
	KindSection
)

// node is the tagged union backing the tree. Exactly one of value/sect is
// meaningful, selected by kind.
type node struct {
	kind  NodeKind
	value any
	sect  *Section
}

func leafNode(v any) *node     { return &node{kind: KindLeaf, value: v} }
func sectionNode() *node       { return &node{kind: KindSection, sect: newSection()} }
func (n *node) isSection() bool { return n.kind == KindSection }

// Section is an ordered container of named child nodes. Iteration order is
// insertion order, which makes key enumeration and persistence deterministic.
type Section struct {
	names    []string
	children map[string]*node
}

func newSection() *Section {
	return &Section{children: make(map[string]*node)}
}

// Names returns the child names in insertion order. The returned slice is
// shared; callers must not modify it.
func (s *Section) Names() []string { return s.names }

// Len returns the number of direct children (sections and leaves).
func (s *Section) Len() int { return len(s.names) }

func (s *Section) child(name string) (*node, bool) {
	n, ok := s.children[name]
	return n, ok
}

func (s *Section) put(name string, n *node) {
	if _, ok := s.children[name]; !ok {
		s.names = append(s.names, name)
	}
	s.children[name] = n
}

func (s *Section) remove(name string) {
	if _, ok := s.children[name]; !ok {
		return
	}
	delete(s.children, name)
	for i, existing := range s.names {
		if existing == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
}
