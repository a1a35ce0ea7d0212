package toc

import "sort"

// ExpansionTracker holds the set of expanded rows. Scrolling into a nested
// section opens its ancestors; only explicit user actions close rows.
type ExpansionTracker struct {
	expanded  map[string]struct{}
	listeners []func()
}

// NewExpansionTracker starts from DefaultExpanded(tree).
func NewExpansionTracker(tree *Tree) *ExpansionTracker {
	return &ExpansionTracker{expanded: DefaultExpanded(tree)}
}

// DefaultExpanded opens every test and argument block.
func DefaultExpanded(tree *Tree) map[string]struct{} {
	ids := map[string]struct{}{}
	tree.Walk(func(node Node, _ int) bool {
		if node.Kind == KindTestBlock || node.Kind == KindArgValBlock {
			ids[node.ID] = struct{}{}
		}
		return true
	})
	return ids
}

func (e *ExpansionTracker) IsExpanded(id string) bool {
	_, ok := e.expanded[id]
	return ok
}

// Toggle flips id's membership.
func (e *ExpansionTracker) Toggle(id string) {
	if _, ok := e.expanded[id]; ok {
		delete(e.expanded, id)
	} else {
		e.expanded[id] = struct{}{}
	}
	e.changed()
}

// Expand unions ids into the set and reports whether anything was added.
func (e *ExpansionTracker) Expand(ids ...string) bool {
	added := false
	for _, id := range ids {
		if _, ok := e.expanded[id]; ok {
			continue
		}
		e.expanded[id] = struct{}{}
		added = true
	}
	if added {
		e.changed()
	}
	return added
}

// ExpandAll opens every node that has children.
func (e *ExpansionTracker) ExpandAll(tree *Tree) {
	var ids []string
	tree.Walk(func(node Node, _ int) bool {
		if node.HasChildren() {
			ids = append(ids, node.ID)
		}
		return true
	})
	e.Expand(ids...)
}

// CollapseAll closes every row.
func (e *ExpansionTracker) CollapseAll() {
	if len(e.expanded) == 0 {
		return
	}
	e.expanded = map[string]struct{}{}
	e.changed()
}

// Reset restores the defaults for a newly loaded tree.
func (e *ExpansionTracker) Reset(tree *Tree) {
	e.expanded = DefaultExpanded(tree)
	e.changed()
}

// Expanded returns the expanded ids in sorted order.
func (e *ExpansionTracker) Expanded() []string {
	ids := make([]string, 0, len(e.expanded))
	for id := range e.expanded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Attach follows the store: every notified ancestor chain is merged into the
// set. The returned function detaches the tracker.
func (e *ExpansionTracker) Attach(store *ActiveStore) func() {
	return store.Subscribe(func(state *ActiveState) {
		if len(state.ParentIDs) > 0 {
			e.Expand(state.ParentIDs...)
		}
	})
}

// Subscribe registers fn to run whenever the set changes.
func (e *ExpansionTracker) Subscribe(fn func()) func() {
	e.listeners = append(e.listeners, fn)
	idx := len(e.listeners) - 1
	return func() {
		if idx < len(e.listeners) {
			e.listeners[idx] = nil
		}
	}
}

func (e *ExpansionTracker) changed() {
	for _, fn := range e.listeners {
		if fn != nil {
			fn()
		}
	}
}
