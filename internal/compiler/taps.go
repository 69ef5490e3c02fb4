package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
)

func addPreviewNode(s *state) {
	if s.opts.PreviewPin != nil && s.opts.PreviewPin.targets(s.src.Asset, s.src.Terminal) {
		s.graft(*s.opts.PreviewPin, corenodes.TypePreview)
	}
}

func addDebugNodes(s *state) {
	for _, addr := range s.opts.DebugPins {
		if addr.targets(s.src.Asset, s.src.Terminal) {
			s.graft(addr, corenodes.TypeDebug)
		}
	}
}

func addRangeNodes(s *state) {
	for _, addr := range s.opts.RangePins {
		if addr.targets(s.src.Asset, s.src.Terminal) {
			s.graft(addr, corenodes.TypeRange)
		}
	}
}

// graft inserts an observer node behind an output pin. Consumers of the
// pin are moved to the observer so that its value is seen on every path.
func (s *state) graft(addr PinAddress, typ string) *graphir.Node {
	n, ok := s.graph.Node(addr.Node)
	if !ok {
		s.warnf(nil, "", "cannot attach %s: node %q does not exist", typ, addr.Node)
		return nil
	}
	p, ok := n.Pin(addr.Pin)
	if !ok || !p.IsOutput() {
		s.warnf(n, addr.Pin, "cannot attach %s: no output pin %q", typ, addr.Pin)
		return nil
	}
	obs, err := s.addNode(idHint(n, typ), typ, graphir.KindStruct)
	if err != nil {
		s.errorf(n, addr.Pin, "cannot attach %s: %v", typ, err)
		return nil
	}
	if err := promote(obs, corenodes.PinIn, p.Type); err != nil {
		s.errorf(n, addr.Pin, "cannot attach %s: %v", typ, err)
		s.graph.RemoveNode(obs)
		return nil
	}
	s.graph.RerouteConsumers(p, obs.MustPin(corenodes.PinOut))
	s.graph.MakeLink(p, obs.MustPin(corenodes.PinIn))
	s.logger.Debug("Attached observer.", "type", typ, "pin", pinLabel(n, addr.Pin), "node", obs.ID)
	return obs
}
