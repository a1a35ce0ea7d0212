// Package toc keeps a run report's table of contents in sync with the
// reader's scroll position.
//
// The package is split into independently observable slices of state: the
// active anchor (ActiveStore), the expanded rows (ExpansionTracker) and the
// panel's display state (DisplayController). A Provider composes them around
// one immutable Tree so consumers only subscribe to what they render.
//
// Nothing in this package is safe for concurrent use. Every type is owned by
// the UI loop that drives it.
package toc

import (
	"errors"
	"fmt"
	"sort"
)

// Kind is the semantic category of a content node.
type Kind string

const (
	KindTestBlock        Kind = "test-block"
	KindArgValBlock      Kind = "arg-val-block"
	KindMeasurementBlock Kind = "measurement-block"
	KindRecordBlock      Kind = "record-block"
)

var (
	ErrEmptyID     = errors.New("toc: node id is empty")
	ErrDuplicateID = errors.New("toc: duplicate node id")
)

// Node is one entry of the table of contents. An empty Label marks a
// structural wrapper: its children are listed but the node itself never
// becomes an anchor.
type Node struct {
	ID       string
	Kind     Kind
	Label    string
	Children []Node
	Metadata map[string]any
}

// MetadataEntry is a single key/value pair of Node.Metadata.
type MetadataEntry struct {
	Key   string
	Value string
}

// IsAnchor reports whether the node can be spied and activated.
func (n Node) IsAnchor() bool {
	return n.Label != ""
}

func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// MetadataEntries returns the metadata sorted by key with values formatted
// for display.
func (n Node) MetadataEntries() []MetadataEntry {
	if len(n.Metadata) == 0 {
		return nil
	}
	entries := make([]MetadataEntry, 0, len(n.Metadata))
	for key, value := range n.Metadata {
		entries = append(entries, MetadataEntry{Key: key, Value: fmt.Sprint(value)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Tree is an immutable table of contents. Callers must not modify the nodes
// passed to NewTree afterwards; the tree's identity (its pointer) is what
// memoized derivations are keyed on.
type Tree struct {
	roots   []Node
	byID    map[string]*Node
	parents map[string]string

	anchorIDs []string
	flattened bool
}

// NewTree indexes roots and validates that every id is present and unique
// across the whole tree.
func NewTree(roots []Node) (*Tree, error) {
	t := &Tree{
		roots:   roots,
		byID:    map[string]*Node{},
		parents: map[string]string{},
	}
	if err := t.index(t.roots, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTree is NewTree for fixtures; it panics on invalid input.
func MustTree(roots []Node) *Tree {
	t, err := NewTree(roots)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) index(nodes []Node, parent string) error {
	for i := range nodes {
		node := &nodes[i]
		if node.ID == "" {
			return fmt.Errorf("%w (parent %q)", ErrEmptyID, parent)
		}
		if _, exists := t.byID[node.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateID, node.ID)
		}
		t.byID[node.ID] = node
		if parent != "" {
			t.parents[node.ID] = parent
		}
		if err := t.index(node.Children, node.ID); err != nil {
			return err
		}
	}
	return nil
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []Node {
	if t == nil {
		return nil
	}
	return t.roots
}

// Node looks up a node anywhere in the tree.
func (t *Tree) Node(id string) (Node, bool) {
	if t == nil {
		return Node{}, false
	}
	node, ok := t.byID[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}

// Walk visits nodes in pre-order with their depth. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(node Node, depth int) bool) {
	if t == nil {
		return
	}
	walkNodes(t.roots, 0, fn)
}

func walkNodes(nodes []Node, depth int, fn func(Node, int) bool) {
	for _, node := range nodes {
		if fn(node, depth) {
			walkNodes(node.Children, depth+1, fn)
		}
	}
}
