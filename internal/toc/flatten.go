package toc

// Flatten lists anchor ids in pre-order. Structural nodes (no label) are
// skipped but their children are still visited.
func Flatten(nodes []Node) []string {
	ids := []string{}
	var traverse func([]Node)
	traverse = func(items []Node) {
		for _, item := range items {
			if item.IsAnchor() {
				ids = append(ids, item.ID)
			}
			traverse(item.Children)
		}
	}
	traverse(nodes)
	return ids
}

// AnchorIDs returns the flattened anchor list, computed once per tree. The
// same slice is returned on every call and must be treated as read-only.
func (t *Tree) AnchorIDs() []string {
	if t == nil {
		return nil
	}
	if !t.flattened {
		t.anchorIDs = Flatten(t.roots)
		t.flattened = true
	}
	return t.anchorIDs
}

// Flattener memoizes Flatten keyed on tree identity. A structurally equal
// but distinct *Tree is flattened again.
type Flattener struct {
	tree *Tree
	ids  []string
}

func (f *Flattener) IDs(tree *Tree) []string {
	if tree == nil {
		f.tree, f.ids = nil, nil
		return nil
	}
	if f.tree != tree {
		f.tree = tree
		f.ids = tree.AnchorIDs()
	}
	return f.ids
}
