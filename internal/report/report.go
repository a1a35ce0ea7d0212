// Package report decodes run reports and derives their table of contents.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Version is the only report format this package understands.
const Version = "v1"

var (
	ErrUnsupportedVersion = errors.New("report: unsupported version")
	ErrInvalidValue       = errors.New("report: value must be a string or a number")
)

// BlockType discriminates the top-level report blocks.
type BlockType string

const (
	BlockBranch   BlockType = "branch-block"
	BlockRevision BlockType = "rev-block"
	BlockTest     BlockType = "test-block"
	BlockRecord   BlockType = "record-entity"
)

// Report is a decoded run report.
type Report struct {
	Version       string  `json:"version"`
	Title         string  `json:"title"`
	RunSourceLink string  `json:"run_source_link"`
	RunStatsLink  string  `json:"run_stats_link"`
	Content       []Block `json:"content"`
}

// Block is one entry of Report.Content. Branch and revision blocks carry
// Items; test blocks carry Test.
type Block struct {
	Type  BlockType
	ID    string
	Label string
	Items []Item
	Test  *TestBlock
}

// Item is a name/value row of a branch or revision block.
type Item struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	URL   string `json:"url,omitempty"`
}

type TestBlock struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	EnableTableView bool     `json:"enable_table_view"`
	EnableChartView bool     `json:"enable_chart_view"`
	CommonArgs      Args     `json:"common_args"`
	Records         []Record `json:"content"`
}

// Record is a single measurement series of a test.
type Record struct {
	Type             BlockType         `json:"type"`
	ID               string            `json:"id"`
	Label            string            `json:"label"`
	Warnings         []string          `json:"warnings,omitempty"`
	ArgsVals         Args              `json:"args_vals"`
	SequenceGroupArg string            `json:"sequence_group_arg"`
	AxisXKey         string            `json:"axis_x_key"`
	AxisXLabel       string            `json:"axis_x_label"`
	AxisYLabel       string            `json:"axis_y_label"`
	Formatters       map[string]string `json:"formatters,omitempty"`
	DatasetTable     [][]Value         `json:"dataset_table"`
	DatasetChart     [][]Value         `json:"dataset_chart"`
}

// HasTable reports whether the record carries at least one table row.
func (r Record) HasTable() bool {
	return len(r.DatasetTable) > 0
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		Type    BlockType       `json:"type"`
		ID      string          `json:"id"`
		Label   string          `json:"label"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*b = Block{Type: head.Type, ID: head.ID, Label: head.Label}
	switch head.Type {
	case BlockBranch, BlockRevision:
		if len(head.Content) == 0 {
			return nil
		}
		if err := json.Unmarshal(head.Content, &b.Items); err != nil {
			return fmt.Errorf("report: block %q: %w", head.ID, err)
		}
	case BlockTest:
		var test TestBlock
		if err := json.Unmarshal(data, &test); err != nil {
			return fmt.Errorf("report: block %q: %w", head.ID, err)
		}
		b.Test = &test
	}
	return nil
}

// Value is a table cell or argument value; the report format allows either
// strings or numbers, and numbers keep their literal text.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, data)
	}
	*v = Value(n.String())
	return nil
}

// Args are the argument values a test or record was run with.
type Args map[string]Value

// Keys returns the argument names in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// String renders the arguments as "name=value" pairs joined by ", ".
func (a Args) String() string {
	parts := make([]string, 0, len(a))
	for _, key := range a.Keys() {
		parts = append(parts, key+"="+string(a[key]))
	}
	return strings.Join(parts, ", ")
}

// groupKey identifies an argument set unambiguously: sorted name/value
// pairs encoded as JSON, so separators inside values cannot collide.
func (a Args) groupKey() string {
	pairs := make([][2]string, 0, len(a))
	for _, key := range a.Keys() {
		pairs = append(pairs, [2]string{key, string(a[key])})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return a.String()
	}
	return string(data)
}

func (a Args) metadata() map[string]any {
	if len(a) == 0 {
		return nil
	}
	meta := make(map[string]any, len(a))
	for key, value := range a {
		meta[key] = string(value)
	}
	return meta
}

// Load reads and decodes the report at path.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Decode parses a report and rejects versions other than v1.
func Decode(r io.Reader) (*Report, error) {
	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("report: decode: %w", err)
	}
	if report.Version != Version {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, report.Version)
	}
	return &report, nil
}

// Tests returns the report's test blocks in document order.
func (r *Report) Tests() []*TestBlock {
	if r == nil {
		return nil
	}
	var tests []*TestBlock
	for _, block := range r.Content {
		if block.Test != nil {
			tests = append(tests, block.Test)
		}
	}
	return tests
}
