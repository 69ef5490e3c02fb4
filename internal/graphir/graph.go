package graphir

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the compiler's classification of a node.
type Kind uint8

const (
	KindStruct Kind = iota
	KindPassthrough
	KindRoot
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindPassthrough:
		return "passthrough"
	case KindRoot:
		return "root"
	case KindTemplate:
		return "template"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Graph is a set of nodes in insertion order.
type Graph struct {
	nodes []*Node
	byID  map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byID: make(map[string]*Node)}
}

// Node is an IR vertex.
type Node struct {
	ID   string
	Ref  *nodeid.Address
	Kind Kind
	// Op is the operation instance owned by this IR node.
	Op *node.Node

	graph *Graph
	pins  []*Pin
}

// Pin is an IR pin. Sub-pins of a split composite pin name their parent.
type Pin struct {
	Name      string
	Direction node.Direction
	Type      pintype.Type
	Flags     node.PinFlags
	Default   cty.Value
	Parent    string
	Member    string

	node  *Node
	links []*Pin
}

// AddNode adds a node and mirrors every pin of op into it. A nil op creates
// a node without pins.
func (g *Graph) AddNode(id string, ref *nodeid.Address, kind Kind, op *node.Node) *Node {
	if _, dup := g.byID[id]; dup {
		panic(fmt.Sprintf("graphir: duplicate node id %q", id))
	}
	n := &Node{ID: id, Ref: ref, Kind: kind, Op: op, graph: g}
	if op != nil {
		for _, p := range op.Pins() {
			n.AddPin(p.Decl.Name, p.Decl.Direction, p.Type, p.Decl.Flags, p.Default)
		}
	}
	g.nodes = append(g.nodes, n)
	g.byID[id] = n
	return n
}

// UniqueID returns base, or base with the smallest numeric suffix that is
// not taken yet.
func (g *Graph) UniqueID(base string) string {
	if _, taken := g.byID[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s_%d", base, i)
		if _, taken := g.byID[id]; !taken {
			return id
		}
	}
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node looks a node up by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// RemoveNode breaks every link of n and removes it from the graph.
func (g *Graph) RemoveNode(n *Node) {
	if n.graph != g {
		panic(fmt.Sprintf("graphir: node %q does not belong to this graph", n.ID))
	}
	for _, p := range n.pins {
		p.BreakAllLinks()
	}
	g.nodes = slices.DeleteFunc(g.nodes, func(m *Node) bool { return m == n })
	delete(g.byID, n.ID)
	n.graph = nil
}

// NodesWhere returns the nodes matching pred, in insertion order.
func (g *Graph) NodesWhere(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// Graph returns the graph owning n, or nil once n was removed.
func (n *Node) Graph() *Graph { return n.graph }

// Type is the operation type name, or the empty string for op-less nodes.
func (n *Node) Type() string {
	if n.Op == nil {
		return ""
	}
	return n.Op.Type()
}

// Binding is the structural role of the node's operation.
func (n *Node) Binding() node.Binding {
	if n.Op == nil {
		return node.BindNone
	}
	return n.Op.Spec().Binding
}

// AddPin adds a pin to the node.
func (n *Node) AddPin(name string, dir node.Direction, t pintype.Type, flags node.PinFlags, def cty.Value) *Pin {
	if _, dup := n.Pin(name); dup {
		panic(fmt.Sprintf("graphir: node %q already has pin %q", n.ID, name))
	}
	p := &Pin{Name: name, Direction: dir, Type: t, Flags: flags, Default: def, node: n}
	n.pins = append(n.pins, p)
	return p
}

// RemovePin breaks the links of a pin and removes it.
func (n *Node) RemovePin(p *Pin) {
	p.BreakAllLinks()
	n.pins = slices.DeleteFunc(n.pins, func(q *Pin) bool { return q == p })
}

// Pins returns the node's pins in creation order.
func (n *Node) Pins() []*Pin { return slices.Clone(n.pins) }

// Inputs returns the input pins.
func (n *Node) Inputs() []*Pin { return n.filter(node.Input) }

// Outputs returns the output pins.
func (n *Node) Outputs() []*Pin { return n.filter(node.Output) }

func (n *Node) filter(dir node.Direction) []*Pin {
	var out []*Pin
	for _, p := range n.pins {
		if p.Direction == dir {
			out = append(out, p)
		}
	}
	return out
}

// Pin looks a pin up by name.
func (n *Node) Pin(name string) (*Pin, bool) {
	for _, p := range n.pins {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// MustPin is like Pin but panics if the pin does not exist.
func (n *Node) MustPin(name string) *Pin {
	p, ok := n.Pin(name)
	if !ok {
		panic(fmt.Sprintf("graphir: node %q has no pin %q", n.ID, name))
	}
	return p
}

func (n *Node) String() string { return n.ID }

// Node returns the pin's owner.
func (p *Pin) Node() *Node { return p.node }

// IsInput reports whether the pin is an input.
func (p *Pin) IsInput() bool { return p.Direction == node.Input }

// IsOutput reports whether the pin is an output.
func (p *Pin) IsOutput() bool { return p.Direction == node.Output }

// Links returns the pins linked to p.
func (p *Pin) Links() []*Pin { return slices.Clone(p.links) }

// IsLinked reports whether p has at least one link.
func (p *Pin) IsLinked() bool { return len(p.links) > 0 }

// Source returns the output feeding an input pin, or nil.
func (p *Pin) Source() *Pin {
	if !p.IsInput() || len(p.links) == 0 {
		return nil
	}
	return p.links[0]
}

func (p *Pin) String() string {
	if p.node == nil {
		return ":" + p.Name
	}
	return p.node.ID + ":" + p.Name
}
