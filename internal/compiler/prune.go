package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// removePassthroughs splices every passthrough out of the graph.
func removePassthroughs(s *state) {
	removed := 0
	for _, n := range s.graph.NodesWhere(func(n *graphir.Node) bool { return n.Kind == graphir.KindPassthrough }) {
		s.graph.Splice(n.MustPin(corenodes.PinInput), n.MustPin(corenodes.PinOutput))
		s.graph.RemoveNode(n)
		removed++
	}
	s.logger.Debug("Removed passthroughs.", "count", removed)
}

func removeNodesNotLinkedToQueryableNodes(s *state) {
	keep := s.graph.Upstream(s.graph.NodesWhere(queryable)...)
	removed := s.graph.RemoveUnreached(keep)
	s.logger.Debug("Removed dead nodes.", "count", len(removed), "kept", s.graph.Len())
}

// checkForLoops reports the nodes that take part in a cycle. Kahn's
// algorithm leaves every node on or downstream of a cycle; nodes that do
// not feed back into that remainder are peeled off so only the cycle
// members are reported.
func checkForLoops(s *state) {
	pending := make(map[*graphir.Node]int)
	var ready []*graphir.Node
	for _, n := range s.graph.Nodes() {
		for _, in := range n.Inputs() {
			if in.IsLinked() {
				pending[n]++
			}
		}
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		for _, c := range consumers(n) {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	left := make(map[*graphir.Node]bool)
	for n, count := range pending {
		if count > 0 {
			left[n] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for n := range left {
			if !feedsAny(n, left) {
				delete(left, n)
				changed = true
			}
		}
	}
	for _, n := range s.graph.Nodes() {
		if left[n] {
			s.errorf(n, "", "node is part of a loop")
		}
	}
}

// consumers lists the consumers of n once per link.
func consumers(n *graphir.Node) []*graphir.Node {
	var out []*graphir.Node
	for _, p := range n.Outputs() {
		for _, l := range p.Links() {
			out = append(out, l.Node())
		}
	}
	return out
}

func feedsAny(n *graphir.Node, set map[*graphir.Node]bool) bool {
	for _, c := range consumers(n) {
		if set[c] {
			return true
		}
	}
	return false
}

// checkResolved makes sure nothing the evaluator cannot run survived.
func checkResolved(s *state) {
	for _, n := range s.graph.Nodes() {
		switch {
		case n.Kind == graphir.KindTemplate:
			s.errorf(n, "", "template %s was not expanded", n.Type())
		case n.Binding() == node.BindLocalDeclaration || n.Binding() == node.BindLocalUsage:
			s.errorf(n, "", "local variable node was not removed")
		}
		for _, p := range n.Pins() {
			if p.Type.IsWildcard() {
				s.errorf(n, p.Name, "pin type is unresolved")
			}
		}
	}
}
