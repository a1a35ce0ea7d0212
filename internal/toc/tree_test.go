package toc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func chainTree() *Tree {
	return MustTree([]Node{
		{ID: "root", Kind: KindTestBlock, Label: "Root", Children: []Node{
			{ID: "A", Kind: KindArgValBlock, Label: "A", Children: []Node{
				{ID: "B", Kind: KindMeasurementBlock, Label: "B", Children: []Node{
					{ID: "C", Kind: KindRecordBlock, Label: "C"},
				}},
			}},
			{ID: "D", Kind: KindMeasurementBlock, Label: "D"},
		}},
	})
}

func TestNewTreeRejectsBadIDs(t *testing.T) {
	_, err := NewTree([]Node{{ID: "a", Label: "A", Children: []Node{{ID: "a", Label: "again"}}}})
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = NewTree([]Node{{ID: "a", Children: []Node{{Label: "no id"}}}})
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestFlattenSkipsStructuralNodes(t *testing.T) {
	tree := MustTree([]Node{
		{ID: "a", Children: []Node{{ID: "b", Label: "B"}}},
	})
	require.Equal(t, []string{"b"}, Flatten(tree.Roots()))
	require.Equal(t, []string{"b"}, tree.AnchorIDs())
}

func TestFlattenPreOrder(t *testing.T) {
	require.Equal(t, []string{"root", "A", "B", "C", "D"}, chainTree().AnchorIDs())
}

func TestAnchorIDsMemoizedPerTree(t *testing.T) {
	build := func() *Tree { return chainTree() }
	first := build()
	a, b := first.AnchorIDs(), first.AnchorIDs()
	require.Same(t, &a[0], &b[0])

	second := build()
	c := second.AnchorIDs()
	require.Equal(t, a, c)
	require.NotSame(t, &a[0], &c[0])

	var f Flattener
	x := f.IDs(first)
	y := f.IDs(first)
	require.Same(t, &x[0], &y[0])
	require.Equal(t, x, f.IDs(second))
}

func TestFindAncestors(t *testing.T) {
	tree := chainTree()
	cases := []struct {
		target string
		want   []string
	}{
		{"C", []string{"root", "A", "B"}},
		{"D", []string{"root"}},
		{"root", []string{}},
		{"missing", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			require.Equal(t, tc.want, FindAncestors(tree.Roots(), tc.target))
			require.Equal(t, tc.want, tree.Ancestors(tc.target))
		})
	}
}

func TestAncestorsDeepNesting(t *testing.T) {
	const depth = 500
	leaf := Node{ID: fmt.Sprintf("n%d", depth), Label: "leaf"}
	for i := depth - 1; i >= 0; i-- {
		leaf = Node{ID: fmt.Sprintf("n%d", i), Label: "x", Children: []Node{leaf}}
	}
	tree := MustTree([]Node{leaf})
	got := tree.Ancestors(fmt.Sprintf("n%d", depth))
	require.Len(t, got, depth)
	require.Equal(t, "n0", got[0])
	require.Equal(t, fmt.Sprintf("n%d", depth-1), got[depth-1])
	require.Equal(t, got, FindAncestors(tree.Roots(), fmt.Sprintf("n%d", depth)))
}

func TestAncestorsAllocatesFreshSlices(t *testing.T) {
	tree := chainTree()
	a, b := tree.Ancestors("C"), tree.Ancestors("C")
	require.Equal(t, a, b)
	require.False(t, sameSlice(a, b))
}

func TestMetadataEntriesSorted(t *testing.T) {
	node := Node{ID: "x", Metadata: map[string]any{"size": 64, "mode": "rx"}}
	require.Equal(t, []MetadataEntry{{Key: "mode", Value: "rx"}, {Key: "size", Value: "64"}}, node.MetadataEntries())
}

var kinds = []Kind{KindTestBlock, KindArgValBlock, KindMeasurementBlock, KindRecordBlock}

func drawNodes(t *rapid.T, next *int, depth int) []Node {
	if depth > 4 {
		return nil
	}
	count := rapid.IntRange(0, 3).Draw(t, "count")
	nodes := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		*next++
		node := Node{
			ID:   fmt.Sprintf("id-%d", *next),
			Kind: rapid.SampledFrom(kinds).Draw(t, "kind"),
		}
		if rapid.Bool().Draw(t, "labelled") {
			node.Label = node.ID
		}
		node.Children = drawNodes(t, next, depth+1)
		nodes = append(nodes, node)
	}
	return nodes
}

func TestTreePropertiesRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		next := 0
		tree, err := NewTree(drawNodes(t, &next, 0))
		if err != nil {
			t.Fatalf("generated tree rejected: %v", err)
		}

		labelled := 0
		tree.Walk(func(node Node, depth int) bool {
			if node.IsAnchor() {
				labelled++
			}
			viaSearch := FindAncestors(tree.Roots(), node.ID)
			viaIndex := tree.Ancestors(node.ID)
			if len(viaSearch) != depth || len(viaIndex) != depth {
				t.Fatalf("%s at depth %d: search=%v index=%v", node.ID, depth, viaSearch, viaIndex)
			}
			for i := range viaSearch {
				if viaSearch[i] != viaIndex[i] {
					t.Fatalf("%s: search=%v index=%v", node.ID, viaSearch, viaIndex)
				}
			}
			return true
		})

		ids := tree.AnchorIDs()
		if len(ids) != labelled {
			t.Fatalf("flattened %d ids, want %d", len(ids), labelled)
		}
		for _, id := range ids {
			node, ok := tree.Node(id)
			if !ok || !node.IsAnchor() {
				t.Fatalf("flattened id %q is not an anchor", id)
			}
		}
	})
}
