package compiler

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// maxExpansions bounds template expansion; templates may expand into other
// templates, but a recursive expansion never reaches a fixed point.
const maxExpansions = 10_000

// replaceTemplates expands template nodes until none with resolved pin
// types is left.
func replaceTemplates(s *state) {
	skipped := make(map[*graphir.Node]bool)
	for count := 0; ; count++ {
		if count == maxExpansions {
			s.errorf(nil, "", "template expansion did not terminate after %d expansions", maxExpansions)
			return
		}
		t := nextTemplate(s.graph, skipped)
		if t == nil {
			return
		}
		if t.Op.HasWildcards() {
			skipped[t] = true
			continue
		}
		if err := s.expand(t); err != nil {
			s.errorf(t, "", "cannot expand %s: %v", t.Type(), err)
			skipped[t] = true
		}
	}
}

func nextTemplate(g *graphir.Graph, skipped map[*graphir.Node]bool) *graphir.Node {
	for _, n := range g.Nodes() {
		if n.Kind == graphir.KindTemplate && !skipped[n] {
			return n
		}
	}
	return nil
}

// expand surrounds the template with passthrough nodes, one per pin, and
// lets the template build its body between them. The passthroughs are
// spliced away later, which gives the body's nodes direct links to the
// template's neighbours.
func (s *state) expand(t *graphir.Node) error {
	x := &expander{
		s:       s,
		tmpl:    t,
		inputs:  make(map[string]*graphir.Pin),
		outputs: make(map[string]*graphir.Pin),
		set:     make(map[string]bool),
	}
	var shims []*graphir.Node
	for _, p := range t.Pins() {
		shim, err := s.addNode(idHint(t, p.Name), corenodes.TypePassthrough, graphir.KindPassthrough)
		if err != nil {
			return err
		}
		shims = append(shims, shim)
		if err := promote(shim, corenodes.PinInput, p.Type); err != nil {
			return err
		}
		in, out := shim.MustPin(corenodes.PinInput), shim.MustPin(corenodes.PinOutput)
		if p.IsInput() {
			if src := p.Source(); src != nil {
				s.graph.BreakLink(src, p)
				s.graph.MakeLink(src, in)
			} else {
				in.Default = p.Default
			}
			x.inputs[p.Name] = out
		} else {
			s.graph.RerouteConsumers(p, out)
			x.outputs[p.Name] = in
		}
	}

	if err := t.Op.Spec().Expand(x); err != nil {
		return err
	}
	for _, p := range t.Outputs() {
		if !x.set[p.Name] {
			return fmt.Errorf("output %q was not set by the expansion", p.Name)
		}
	}
	s.graph.RemoveNode(t)
	s.logger.Debug("Expanded template.", "node", t.ID, "type", t.Type(), "nodes", len(x.created), "passthroughs", len(shims))
	return nil
}

type pinHandle struct{ pin *graphir.Pin }

func (h pinHandle) Type() pintype.Type {
	if h.pin == nil {
		return pintype.Wildcard()
	}
	return h.pin.Type
}

var errUnknownHandle = errors.New("pin handle does not refer to a pin of the expansion")

func resolveHandle(h node.PinHandle) (*graphir.Pin, error) {
	ph, ok := h.(pinHandle)
	if !ok || ph.pin == nil {
		return nil, errUnknownHandle
	}
	return ph.pin, nil
}

// expander implements node.Expander over the IR.
type expander struct {
	s       *state
	tmpl    *graphir.Node
	inputs  map[string]*graphir.Pin
	outputs map[string]*graphir.Pin
	set     map[string]bool
	created []*graphir.Node
}

func (x *expander) Template() *node.Node { return x.tmpl.Op }

func (x *expander) Input(pin string) node.PinHandle {
	return pinHandle{pin: x.inputs[pin]}
}

func (x *expander) NewNode(typ string) (node.ExpandedNode, error) {
	spec, ok := x.s.reg.Spec(typ)
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
	n, err := x.s.addNode(idHint(x.tmpl, typ), typ, kindOf(spec))
	if err != nil {
		return nil, err
	}
	x.created = append(x.created, n)
	return &expandedNode{x: x, n: n}, nil
}

func (x *expander) SetOutput(pin string, from node.PinHandle) error {
	in, ok := x.outputs[pin]
	if !ok {
		return fmt.Errorf("template has no output %q", pin)
	}
	if x.set[pin] {
		return fmt.Errorf("output %q is set twice", pin)
	}
	src, err := resolveHandle(from)
	if err != nil {
		return err
	}
	if !src.Type.CanCastTo(in.Type) {
		return fmt.Errorf("output %q is %s and cannot receive %s", pin, in.Type, src.Type)
	}
	x.s.graph.MakeLink(src, in)
	x.set[pin] = true
	return nil
}

type expandedNode struct {
	x *expander
	n *graphir.Node
}

func (e *expandedNode) Op() *node.Node { return e.n.Op }

func (e *expandedNode) Output(pin string) node.PinHandle {
	p, ok := e.n.Pin(pin)
	if !ok || !p.IsOutput() {
		return pinHandle{}
	}
	return pinHandle{pin: p}
}

func (e *expandedNode) SetInput(pin string, from node.PinHandle) error {
	src, err := resolveHandle(from)
	if err != nil {
		return err
	}
	dst, ok := e.n.Pin(pin)
	if !ok || !dst.IsInput() {
		return fmt.Errorf("%s has no input %q", e.n.Type(), pin)
	}
	if dst.IsLinked() {
		return fmt.Errorf("input %q of %s is already linked", pin, e.n.Type())
	}
	if dst.Type != src.Type && e.n.Op.CanPromote(pin, src.Type) == nil {
		e.n.Op.PromotePin(pin, src.Type)
		syncPins(e.n)
	}
	if !src.Type.CanCastTo(dst.Type) {
		return fmt.Errorf("input %q of %s is %s and cannot receive %s", pin, e.n.Type(), dst.Type, src.Type)
	}
	e.x.s.graph.MakeLink(src, dst)
	return nil
}

func (e *expandedNode) SetDefault(pin string, v cty.Value) error {
	if err := e.n.Op.SetPinDefault(pin, v); err != nil {
		return err
	}
	p := e.n.MustPin(pin)
	p.Default = e.n.Op.MustPin(pin).Default
	return nil
}
