package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
)

// addToBuffer materializes scalar-to-buffer links with a ToBuffer node.
func addToBuffer(s *state) {
	for _, n := range s.graph.Nodes() {
		for _, in := range n.Inputs() {
			src := in.Source()
			if src == nil || !in.Type.IsBuffer() || !src.Type.IsScalar() {
				continue
			}
			s.insertToBuffer(src, in)
		}
	}
}

func (s *state) insertToBuffer(src, in *graphir.Pin) {
	n := in.Node()
	h, err := s.addNode(idHint(n, in.Name+"_"+corenodes.TypeToBuffer), corenodes.TypeToBuffer, graphir.KindStruct)
	if err != nil {
		s.errorf(n, in.Name, "%v", err)
		return
	}
	if err := promote(h, corenodes.PinValue, src.Type); err != nil {
		s.errorf(n, in.Name, "%v", err)
		return
	}
	if err := promote(h, corenodes.PinBuffer, in.Type); err != nil {
		s.errorf(n, in.Name, "%v", err)
		return
	}
	s.graph.BreakLink(src, in)
	s.graph.MakeLink(src, h.MustPin(corenodes.PinValue))
	s.graph.MakeLink(h.MustPin(corenodes.PinBuffer), in)
}
