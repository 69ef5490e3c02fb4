package graphir

// Clone returns a deep copy of the graph. Operation instances are cloned
// too, so the copy can be rewritten independently.
func (g *Graph) Clone() *Graph {
	out := New()
	pinMap := make(map[*Pin]*Pin)
	for _, n := range g.nodes {
		cn := &Node{ID: n.ID, Ref: n.Ref, Kind: n.Kind, graph: out}
		if n.Op != nil {
			cn.Op = n.Op.Clone()
		}
		for _, p := range n.pins {
			cp := &Pin{
				Name:      p.Name,
				Direction: p.Direction,
				Type:      p.Type,
				Flags:     p.Flags,
				Default:   p.Default,
				Parent:    p.Parent,
				Member:    p.Member,
				node:      cn,
			}
			cn.pins = append(cn.pins, cp)
			pinMap[p] = cp
		}
		out.nodes = append(out.nodes, cn)
		out.byID[cn.ID] = cn
	}
	for old, cp := range pinMap {
		for _, l := range old.links {
			cp.links = append(cp.links, pinMap[l])
		}
	}
	return out
}
