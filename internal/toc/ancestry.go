package toc

// FindAncestors returns the ids on the path from the root level down to the
// parent of targetID. The result is empty when targetID sits at the root
// level or is not in nodes.
func FindAncestors(nodes []Node, targetID string) []string {
	path, _ := findPath(nodes, targetID, nil)
	if path == nil {
		return []string{}
	}
	return path
}

func findPath(nodes []Node, targetID string, prefix []string) ([]string, bool) {
	for _, node := range nodes {
		if node.ID == targetID {
			return append([]string(nil), prefix...), true
		}
		if len(node.Children) == 0 {
			continue
		}
		next := append(prefix[:len(prefix):len(prefix)], node.ID)
		if path, ok := findPath(node.Children, targetID, next); ok {
			return path, true
		}
	}
	return nil, false
}

// Ancestors is FindAncestors over the tree's parent index. It always
// allocates a new slice, so two calls never share a backing array.
func (t *Tree) Ancestors(id string) []string {
	if t == nil {
		return []string{}
	}
	if _, ok := t.byID[id]; !ok {
		return []string{}
	}
	var chain []string
	for parent, ok := t.parents[id]; ok; parent, ok = t.parents[parent] {
		chain = append(chain, parent)
	}
	result := make([]string, len(chain))
	for i, parent := range chain {
		result[len(chain)-1-i] = parent
	}
	return result
}
