package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/runreport/internal/report"
	"github.com/csheth/runreport/internal/toc"
)

var errUnknownAnchor = errors.New("unknown anchor")

type outline struct {
	path   string
	report *report.Report
	tree   *toc.Tree
}

func newOutlineCmd() *cobra.Command {
	var active string
	var idsOnly bool
	cmd := &cobra.Command{
		Use:   "outline <report.json>...",
		Short: "Print the table of contents of one or more reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outlines, err := loadOutlines(cmd.Context(), args)
			if err != nil {
				return err
			}
			if active != "" && !anyContains(outlines, active) {
				return fmt.Errorf("%w: %q", errUnknownAnchor, active)
			}
			out := cmd.OutOrStdout()
			for i, o := range outlines {
				if len(outlines) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "== %s (%s)\n", o.report.Title, o.path)
				}
				if idsOnly {
					for _, id := range o.tree.AnchorIDs() {
						fmt.Fprintln(out, id)
					}
					continue
				}
				writeOutline(out, o.tree, active)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "mark this anchor and its ancestors")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print the flattened anchor ids in reading order")
	return cmd
}

// loadOutlines decodes every report concurrently, keeping argument order.
// The first failure cancels the rest.
func loadOutlines(ctx context.Context, paths []string) ([]outline, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	outlines := make([]outline, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := report.Load(path)
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}
			tree, err := report.Tree(r)
			if err != nil {
				return fmt.Errorf("%s: build contents: %w", path, err)
			}
			outlines[i] = outline{path: path, report: r, tree: tree}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outlines, nil
}

func anyContains(outlines []outline, id string) bool {
	for _, o := range outlines {
		if node, ok := o.tree.Node(id); ok && node.IsAnchor() {
			return true
		}
	}
	return false
}

// writeOutline prints one row per anchor. Wrapper nodes are skipped and
// their children keep the wrapper's depth. The active anchor is marked
// with '*' and its ancestors with '+'.
func writeOutline(w io.Writer, tree *toc.Tree, active string) {
	parents := map[string]bool{}
	if active != "" {
		for _, id := range tree.Ancestors(active) {
			parents[id] = true
		}
	}
	var walk func(nodes []toc.Node, depth int)
	walk = func(nodes []toc.Node, depth int) {
		for _, node := range nodes {
			if !node.IsAnchor() {
				walk(node.Children, depth)
				continue
			}
			marker := "  "
			switch {
			case node.ID == active:
				marker = "* "
			case parents[node.ID]:
				marker = "+ "
			}
			fmt.Fprintf(w, "%s%s%s\n", marker, strings.Repeat("  ", depth), node.Label)
			walk(node.Children, depth+1)
		}
	}
	walk(tree.Roots(), 0)
}
