package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/serialized"
)

// load builds the IR from the serialized graph. Links are created from the
// input side so every link is made exactly once.
func load(s *state) {
	for _, sn := range s.src.Nodes() {
		s.diags = s.diags.Append(sn.Diagnostics...)
		if sn.Op == nil {
			continue
		}
		n := s.graph.AddNode(sn.Name, sn.Ref, kindOf(sn.Op.Spec()), nil)
		n.Op = sn.Op.Clone()
		for _, p := range append(sn.Inputs, sn.Outputs...) {
			ip := n.AddPin(p.Name, p.Direction, p.Type, p.Flags, p.Default)
			ip.Parent, ip.Member = p.Parent, p.Member
		}
	}

	for _, sn := range s.src.Nodes() {
		for _, p := range sn.Inputs {
			for _, ref := range p.LinkedTo {
				s.loadLink(ref, serialized.PinRef{Node: sn.Name, Pin: p.Name})
			}
		}
	}
}

func (s *state) loadLink(from, to serialized.PinRef) {
	out, ok := s.lookup(from)
	if !ok {
		return
	}
	in, ok := s.lookup(to)
	if !ok {
		return
	}
	if in.IsLinked() {
		s.errorf(in.Node(), in.Name, "input is linked more than once")
		return
	}
	if !out.Type.CanCastTo(in.Type) {
		s.errorf(in.Node(), in.Name, "cannot link %s (%s) to %s (%s)", out, out.Type, in, in.Type)
		return
	}
	s.graph.MakeLink(out, in)
}

// lookup resolves a pin reference. Nodes without an operation were not
// loaded and already carry an error.
func (s *state) lookup(ref serialized.PinRef) (*graphir.Pin, bool) {
	n, ok := s.graph.Node(ref.Node)
	if !ok {
		return nil, false
	}
	return n.Pin(ref.Pin)
}
