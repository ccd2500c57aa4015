package state

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// ExportDot renders the topology as a GraphViz digraph with the given name.
// Output is deterministic: states appear in first-appearance order, the
// edges of each state are ordered by event kind, and parallel edges between
// the same pair of states merge into one edge labeled with the
// lexicographically sorted kinds. The line break between merged kinds is
// encoded as a literal backslash-n in the source so GraphViz wraps the
// label. Repeated calls yield byte-identical output.
func ExportDot[O any, S comparable, K comparable, E any](t *Topology[O, S, K, E], name string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", name)
	fmt.Fprintf(&buf, "graph [label=\"%s\", fontsize=24, fontname=Helvetica];\n", name)
	buf.WriteString("node [fontsize=12, fontname=Helvetica];\n")
	buf.WriteString("edge [fontsize=9, fontcolor=blue, fontname=Arial];\n")

	for _, s := range t.States() {
		fmt.Fprintf(&buf, "%q [label=%v];\n", nodeID(name, s), s)
		for _, e := range mergedEdges(t, s) {
			fmt.Fprintf(&buf, "%q -> %q [label=\"%s\"];\n", nodeID(name, s), nodeID(name, e.to), e.label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID[S comparable](name string, s S) string {
	return fmt.Sprintf("%s.%v", name, s)
}

type dotEdge[S comparable] struct {
	to    S
	label string
}

// mergedEdges collapses the arcs leaving from that share a destination into
// one edge per (from, to) pair. Multi arcs contribute one edge per declared
// target. Edges are ordered by label, which sorts them by their smallest
// event kind.
func mergedEdges[O any, S comparable, K comparable, E any](t *Topology[O, S, K, E], from S) []dotEdge[S] {
	kindsByTarget := make(map[S][]string)
	var targets []S
	for _, arc := range t.ArcsFrom(from) {
		for _, tgt := range arc.Targets {
			if _, ok := kindsByTarget[tgt]; !ok {
				targets = append(targets, tgt)
			}
			kindsByTarget[tgt] = append(kindsByTarget[tgt], fmt.Sprint(arc.On))
		}
	}

	edges := make([]dotEdge[S], 0, len(targets))
	for _, tgt := range targets {
		kinds := kindsByTarget[tgt]
		sort.Strings(kinds)
		edges = append(edges, dotEdge[S]{to: tgt, label: strings.Join(kinds, `,\n`)})
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].label < edges[j].label })
	return edges
}
