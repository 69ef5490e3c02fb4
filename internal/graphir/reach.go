package graphir

// Upstream returns every node reachable from roots by walking input links
// backwards, roots included.
func (g *Graph) Upstream(roots ...*Node) map[*Node]bool {
	seen := make(map[*Node]bool, len(g.nodes))
	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, in := range n.Inputs() {
			if src := in.Source(); src != nil && !seen[src.node] {
				stack = append(stack, src.node)
			}
		}
	}
	return seen
}

// RemoveUnreached deletes every node not in keep and returns the removed
// nodes in insertion order.
func (g *Graph) RemoveUnreached(keep map[*Node]bool) []*Node {
	var removed []*Node
	for _, n := range g.Nodes() {
		if !keep[n] {
			g.RemoveNode(n)
			removed = append(removed, n)
		}
	}
	return removed
}
