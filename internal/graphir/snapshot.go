package graphir

import (
	"cmp"
	"slices"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/zclconf/go-cty/cty"
)

// PinSnapshot is the canonical form of a pin.
type PinSnapshot struct {
	Name      string
	Direction node.Direction
	Type      string
	Flags     node.PinFlags
	Default   string
	Links     []string
}

// NodeSnapshot is the canonical form of a node.
type NodeSnapshot struct {
	ID       string
	Ref      string
	Kind     Kind
	Op       string
	Identity node.Identity
	Pins     []PinSnapshot
}

// Snapshot is a comparable, order-independent description of a graph. Two
// graphs with equal snapshots evaluate identically.
type Snapshot struct {
	Nodes []NodeSnapshot
}

// Snapshot captures the graph in canonical form.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{Nodes: make([]NodeSnapshot, 0, len(g.nodes))}
	for _, n := range g.nodes {
		ns := NodeSnapshot{ID: n.ID, Ref: n.Ref.String(), Kind: n.Kind, Op: n.Type()}
		if n.Op != nil {
			ns.Identity = n.Op.Identity()
		}
		for _, p := range n.pins {
			ps := PinSnapshot{
				Name:      p.Name,
				Direction: p.Direction,
				Type:      p.Type.String(),
				Flags:     p.Flags,
			}
			if p.Default != cty.NilVal {
				ps.Default = p.Default.GoString()
			}
			for _, l := range p.links {
				ps.Links = append(ps.Links, l.String())
			}
			slices.Sort(ps.Links)
			ns.Pins = append(ns.Pins, ps)
		}
		slices.SortFunc(ns.Pins, func(a, b PinSnapshot) int { return cmp.Compare(a.Name, b.Name) })
		s.Nodes = append(s.Nodes, ns)
	}
	slices.SortFunc(s.Nodes, func(a, b NodeSnapshot) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// Equal reports whether two snapshots describe the same graph.
func (s Snapshot) Equal(other Snapshot) bool {
	return gocmp.Equal(s.Nodes, other.Nodes)
}

// Diff returns a human-readable description of the differences.
func (s Snapshot) Diff(other Snapshot) string {
	return gocmp.Diff(s.Nodes, other.Nodes)
}
