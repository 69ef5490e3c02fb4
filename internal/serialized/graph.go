package serialized

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// PinRef names a pin of another node in the same graph.
type PinRef struct {
	Node string
	Pin  string
}

func (r PinRef) String() string { return r.Node + ":" + r.Pin }

// Pin is one pin of a serialized node. Sub-pins of a split composite pin
// are named "<Parent>.<Member>".
type Pin struct {
	Name      string
	Direction node.Direction
	Type      pintype.Type
	Flags     node.PinFlags
	Default   cty.Value
	Parent    string
	Member    string
	// LinkedTo names the source of an input, or the consumers of an output.
	LinkedTo []PinRef
}

// IsSubPin reports whether the pin is a member of a split composite pin.
func (p *Pin) IsSubPin() bool { return p.Parent != "" }

// Node is one serialized node. Op is nil when the node type is unknown;
// such nodes always carry an error diagnostic.
type Node struct {
	Name        string
	Ref         *nodeid.Address
	Op          *node.Node
	Inputs      []*Pin
	Outputs     []*Pin
	Diagnostics diag.Diagnostics
}

// Pin looks a pin up by name in both directions.
func (n *Node) Pin(name string) (*Pin, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// AddPin appends a pin to the matching direction list.
func (n *Node) AddPin(p *Pin) {
	if _, dup := n.Pin(p.Name); dup {
		panic(fmt.Sprintf("serialized: node %q already has pin %q", n.Name, p.Name))
	}
	if p.Direction == node.Input {
		n.Inputs = append(n.Inputs, p)
	} else {
		n.Outputs = append(n.Outputs, p)
	}
}

// Graph is the snapshot of one terminal graph.
type Graph struct {
	Asset        string
	Terminal     string
	TerminalGuid uuid.UUID
	Function     bool
	Revision     uint64

	// Declaration tables visible from the terminal. Inputs holds the
	// function's own inputs followed by the asset inputs.
	Parameters []*model.Declaration
	Inputs     []*model.Declaration
	Outputs    []*model.Declaration

	// MakeNodes and BreakNodes map composite scalar types to the helper
	// node types used to assemble and split them.
	MakeNodes  map[pintype.Type]string
	BreakNodes map[pintype.Type]string

	// Diagnostics not anchored on a single node.
	Diagnostics diag.Diagnostics

	nodes map[string]*Node
	order []string
}

// NewGraph returns an empty graph for a terminal.
func NewGraph(asset, terminal string, guid uuid.UUID) *Graph {
	return &Graph{
		Asset:        asset,
		Terminal:     terminal,
		TerminalGuid: guid,
		MakeNodes:    make(map[pintype.Type]string),
		BreakNodes:   make(map[pintype.Type]string),
		nodes:        make(map[string]*Node),
	}
}

// Address returns the address of the terminal, `<asset>.<terminal>`.
func (g *Graph) Address() *nodeid.Address {
	return nodeid.New(g.Asset, g.Terminal)
}

// AddNode registers a node. Node names are unique per graph.
func (g *Graph) AddNode(n *Node) {
	if _, dup := g.nodes[n.Name]; dup {
		panic(fmt.Sprintf("serialized: duplicate node %q", n.Name))
	}
	g.nodes[n.Name] = n
	g.order = append(g.order, n.Name)
}

// Node looks a node up by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns the nodes in authoring order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// AllDiagnostics returns the graph diagnostics followed by the diagnostics
// of every node in authoring order.
func (g *Graph) AllDiagnostics() diag.Diagnostics {
	out := slices.Clone(g.Diagnostics)
	for _, name := range g.order {
		out = append(out, g.nodes[name].Diagnostics...)
	}
	return out
}

// Link records a link from an output pin to an input pin on both ends.
func (g *Graph) Link(from PinRef, to PinRef) error {
	src, err := g.pin(from, node.Output)
	if err != nil {
		return err
	}
	dst, err := g.pin(to, node.Input)
	if err != nil {
		return err
	}
	if len(dst.LinkedTo) != 0 {
		return fmt.Errorf("input %s is already linked to %s", to, dst.LinkedTo[0])
	}
	dst.LinkedTo = []PinRef{from}
	src.LinkedTo = append(src.LinkedTo, to)
	return nil
}

func (g *Graph) pin(ref PinRef, dir node.Direction) (*Pin, error) {
	n, ok := g.nodes[ref.Node]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", ref.Node)
	}
	p, ok := n.Pin(ref.Pin)
	if !ok {
		return nil, fmt.Errorf("node %q has no pin %q", ref.Node, ref.Pin)
	}
	if p.Direction != dir {
		return nil, fmt.Errorf("pin %s is not an %s", ref, dir)
	}
	return p, nil
}
