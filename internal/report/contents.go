package report

import (
	"fmt"

	"github.com/csheth/runreport/internal/toc"
)

// TableLabel is the label of a record's table entry.
const TableLabel = "Table"

// ArgsID is the node id of the i-th argument group of a test block.
func ArgsID(testID string, i int) string {
	return fmt.Sprintf("%s/args-%d", testID, i)
}

// TableID is the node id of a record's table.
func TableID(recordID string) string {
	return recordID + "/table"
}

// Contents derives the table of contents. Each test block lists its records
// grouped by equal argument values, in the order each group first appears.
// A group without arguments gets an empty label so the panel shows its
// records directly under the test.
func Contents(r *Report) []toc.Node {
	var nodes []toc.Node
	for _, test := range r.Tests() {
		nodes = append(nodes, testNode(test))
	}
	return nodes
}

// Tree builds the immutable tree for r.
func Tree(r *Report) (*toc.Tree, error) {
	return toc.NewTree(Contents(r))
}

type argGroup struct {
	args    Args
	records []Record
}

func testNode(test *TestBlock) toc.Node {
	var groups []*argGroup
	byKey := map[string]*argGroup{}
	for _, record := range test.Records {
		if record.Type != "" && record.Type != BlockRecord {
			continue
		}
		key := record.ArgsVals.groupKey()
		group, ok := byKey[key]
		if !ok {
			group = &argGroup{args: record.ArgsVals}
			byKey[key] = group
			groups = append(groups, group)
		}
		group.records = append(group.records, record)
	}

	node := toc.Node{
		ID:       test.ID,
		Kind:     toc.KindTestBlock,
		Label:    test.Label,
		Metadata: test.CommonArgs.metadata(),
	}
	for i, group := range groups {
		argNode := toc.Node{
			ID:       ArgsID(test.ID, i),
			Kind:     toc.KindArgValBlock,
			Label:    group.args.String(),
			Metadata: group.args.metadata(),
		}
		for _, record := range group.records {
			argNode.Children = append(argNode.Children, recordNode(record, test.EnableTableView))
		}
		node.Children = append(node.Children, argNode)
	}
	return node
}

func recordNode(record Record, tableView bool) toc.Node {
	label := record.Label
	if label == "" {
		label = record.AxisYLabel
	}
	node := toc.Node{ID: record.ID, Kind: toc.KindMeasurementBlock, Label: label}
	if tableView && record.HasTable() {
		node.Children = []toc.Node{{ID: TableID(record.ID), Kind: toc.KindRecordBlock, Label: TableLabel}}
	}
	return node
}
