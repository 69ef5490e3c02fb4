package evaluator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// binding feeds one input pin, either from an upstream output or from a
// constant.
type binding struct {
	source *rnode
	pin    string
	value  cty.Value
	typ    pintype.Type
	guid   uuid.UUID
}

type output struct {
	id      query.RuntimeID
	typ     pintype.Type
	compute node.ComputeFunc
}

// rnode is a linked runtime node.
type rnode struct {
	id      string
	ref     *nodeid.Address
	op      *node.Node
	lazy    bool
	order   []string
	inputs  map[string]*binding
	outputs map[string]*output
}

func (n *rnode) linked() []string {
	var names []string
	for _, name := range n.order {
		if n.inputs[name].source != nil {
			names = append(names, name)
		}
	}
	return names
}

// Link builds the evaluator of a carved graph.
func Link(key Key, c *compiler.Carved, reg *registry.Registry) (*Evaluator, error) {
	e := &Evaluator{
		key:      key,
		nodes:    make(map[string]*rnode, c.Graph.Len()),
		snapshot: c.Graph.Snapshot(),
		rootPin:  c.Pin,
	}
	irNodes := c.Graph.Nodes()
	for _, n := range irNodes {
		rn := &rnode{
			id:      n.ID,
			ref:     n.Ref,
			op:      n.Op,
			inputs:  make(map[string]*binding),
			outputs: make(map[string]*output),
		}
		if n.Op != nil {
			rn.lazy = n.Op.Spec().LazyInputs
		}
		e.nodes[n.ID] = rn
	}
	for _, n := range irNodes {
		rn := e.nodes[n.ID]
		for _, p := range n.Inputs() {
			b, err := bind(e, n, p)
			if err != nil {
				return nil, err
			}
			rn.order = append(rn.order, p.Name)
			rn.inputs[p.Name] = b
		}
		for _, p := range n.Outputs() {
			out := &output{id: query.Intern(n.Ref, p.Name), typ: p.Type}
			if n.Op != nil {
				out.compute, _ = reg.ComputeFor(n.Op, p.Name)
			}
			if out.compute == nil && p.IsLinked() {
				return nil, fmt.Errorf("%s: no compute function for %s output %q", n.Ref, n.Type(), p.Name)
			}
			rn.outputs[p.Name] = out
		}
	}
	root, ok := e.nodes[c.Root.ID]
	if !ok {
		return nil, fmt.Errorf("root node %q is not part of the graph", c.Root.ID)
	}
	if _, ok := root.inputs[c.Pin]; !ok {
		return nil, fmt.Errorf("root node %q has no input %q", c.Root.ID, c.Pin)
	}
	e.root = root
	return e, nil
}

func bind(e *Evaluator, n *graphir.Node, p *graphir.Pin) (*binding, error) {
	b := &binding{typ: p.Type}
	if n.Op != nil {
		if op, ok := n.Op.Pin(p.Name); ok {
			b.guid = op.Decl.Guid
		}
	}
	if src := p.Source(); src != nil {
		b.source = e.nodes[src.Node().ID]
		b.pin = src.Name
		return b, nil
	}
	if p.Default == cty.NilVal {
		b.value = p.Type.Zero()
		return b, nil
	}
	v, err := p.Type.Convert(p.Default)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: default: %w", n.Ref, p.Name, err)
	}
	b.value = v
	return b, nil
}
