package graphir

import (
	"fmt"
	"slices"
)

// Check verifies the structural invariants of the graph and panics on the
// first violation: every link is mirrored on both ends and joins an output
// to an input of live nodes, inputs have at most one link, pins belong to
// their node and node ids are unique.
func (g *Graph) Check() {
	seenRefs := make(map[string]string, len(g.nodes))
	for _, n := range g.nodes {
		if n.graph != g {
			panic(fmt.Sprintf("graphir: node %q has a stale owner", n.ID))
		}
		if g.byID[n.ID] != n {
			panic(fmt.Sprintf("graphir: node %q is not indexed", n.ID))
		}
		if n.Ref != nil {
			ref := n.Ref.String()
			if other, dup := seenRefs[ref]; dup {
				panic(fmt.Sprintf("graphir: nodes %q and %q share ref %s", other, n.ID, ref))
			}
			seenRefs[ref] = n.ID
		}
		for _, p := range n.pins {
			if p.node != n {
				panic(fmt.Sprintf("graphir: pin %s is owned by another node", p))
			}
			if p.IsInput() && len(p.links) > 1 {
				panic(fmt.Sprintf("graphir: input %s has %d links", p, len(p.links)))
			}
			for _, other := range p.links {
				if other.node == nil || other.node.graph != g {
					panic(fmt.Sprintf("graphir: pin %s links to removed pin %s", p, other))
				}
				if other.Direction == p.Direction {
					panic(fmt.Sprintf("graphir: pins %s and %s have the same direction", p, other))
				}
				if !slices.Contains(other.links, p) {
					panic(fmt.Sprintf("graphir: link %s -> %s is not mirrored", p, other))
				}
				if !slices.Contains(other.node.pins, other) {
					panic(fmt.Sprintf("graphir: pin %s links to detached pin %s", p, other))
				}
			}
		}
	}
	if len(g.byID) != len(g.nodes) {
		panic(fmt.Sprintf("graphir: index has %d entries for %d nodes", len(g.byID), len(g.nodes)))
	}
}
