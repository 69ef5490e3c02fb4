package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/zclconf/go-cty/cty"
)

// removeSplitPins replaces the sub-pins of every split composite pin with a
// shared make node (inputs) or break node (outputs).
func removeSplitPins(s *state) {
	for _, n := range s.graph.Nodes() {
		for _, parent := range splitParents(n) {
			pp, ok := n.Pin(parent)
			if !ok {
				s.errorf(n, parent, "sub-pins refer to a missing pin")
				continue
			}
			subs := subPins(n, parent)
			if pp.IsInput() {
				s.joinSubPins(n, pp, subs)
			} else {
				s.splitSubPins(n, pp, subs)
			}
			for _, sub := range subs {
				n.RemovePin(sub)
			}
		}
	}
}

func splitParents(n *graphir.Node) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range n.Pins() {
		if p.Parent != "" && !seen[p.Parent] {
			seen[p.Parent] = true
			out = append(out, p.Parent)
		}
	}
	return out
}

func subPins(n *graphir.Node, parent string) []*graphir.Pin {
	var out []*graphir.Pin
	for _, p := range n.Pins() {
		if p.Parent == parent {
			out = append(out, p)
		}
	}
	return out
}

func (s *state) joinSubPins(n *graphir.Node, pp *graphir.Pin, subs []*graphir.Pin) {
	if pp.IsLinked() {
		s.errorf(n, pp.Name, "pin is both linked and split")
		return
	}
	typ, ok := s.src.MakeNodes[pp.Type.InnerType()]
	if !ok {
		s.errorf(n, pp.Name, "no make node for type %s", pp.Type)
		return
	}
	h := s.helper(n, pp, typ)
	if h == nil {
		return
	}
	for _, sub := range subs {
		hp, ok := h.Pin(sub.Member)
		if !ok {
			s.errorf(n, sub.Name, "type %s has no member %q", pp.Type, sub.Member)
			continue
		}
		if src := sub.Source(); src != nil {
			sub.BreakAllLinks()
			s.graph.MakeLink(src, hp)
		} else if sub.Default != cty.NilVal {
			def, err := hp.Type.Convert(sub.Default)
			if err != nil {
				s.errorf(n, sub.Name, "%v", err)
				continue
			}
			hp.Default = def
		}
	}
	s.graph.MakeLink(h.MustPin(corenodes.PinValue), pp)
}

func (s *state) splitSubPins(n *graphir.Node, pp *graphir.Pin, subs []*graphir.Pin) {
	typ, ok := s.src.BreakNodes[pp.Type.InnerType()]
	if !ok {
		s.errorf(n, pp.Name, "no break node for type %s", pp.Type)
		return
	}
	h := s.helper(n, pp, typ)
	if h == nil {
		return
	}
	for _, sub := range subs {
		hp, ok := h.Pin(sub.Member)
		if !ok {
			s.errorf(n, sub.Name, "type %s has no member %q", pp.Type, sub.Member)
			continue
		}
		s.graph.RerouteConsumers(sub, hp)
	}
	s.graph.MakeLink(pp, h.MustPin(corenodes.PinValue))
}

// helper adds a make or break node whose Value pin matches pp.
func (s *state) helper(n *graphir.Node, pp *graphir.Pin, typ string) *graphir.Node {
	h, err := s.addNode(idHint(n, pp.Name), typ, graphir.KindStruct)
	if err != nil {
		s.errorf(n, pp.Name, "%v", err)
		return nil
	}
	if err := promote(h, corenodes.PinValue, pp.Type); err != nil {
		s.errorf(n, pp.Name, "%v", err)
		s.graph.RemoveNode(h)
		return nil
	}
	return h
}
