package compiler

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// collapseInputs merges Input nodes reading the same declaration. The node
// carrying a Default pin is kept so that its default chain survives.
func collapseInputs(s *state) {
	groups := make(map[uuid.UUID][]*graphir.Node)
	var order []uuid.UUID
	for _, n := range s.graph.NodesWhere(bound(node.BindInput)) {
		guid, ok := corenodes.Guid(n.Op)
		if !ok {
			continue
		}
		if _, seen := groups[guid]; !seen {
			order = append(order, guid)
		}
		groups[guid] = append(groups[guid], n)
	}

	for _, guid := range order {
		nodes := groups[guid]
		if len(nodes) < 2 {
			continue
		}
		keep := nodes[0]
		var withDefault []*graphir.Node
		for _, n := range nodes {
			if _, ok := n.Pin(corenodes.PinDefault); ok {
				withDefault = append(withDefault, n)
			}
		}
		if len(withDefault) > 0 {
			keep = withDefault[0]
		}
		if len(withDefault) > 1 {
			for _, n := range withDefault[1:] {
				s.warnf(n, corenodes.PinDefault, "input %q has a Default pin on several nodes; %s is used",
					keep.Op.StringProperty(corenodes.PropInput), keep.ID)
			}
		}
		to := keep.MustPin(corenodes.PinValue)
		for _, n := range nodes {
			if n == keep {
				continue
			}
			s.graph.RerouteConsumers(n.MustPin(corenodes.PinValue), to)
			s.graph.RemoveNode(n)
		}
		s.logger.Debug("Collapsed input nodes.", "input", keep.Op.StringProperty(corenodes.PropInput), "kept", keep.ID, "merged", len(nodes)-1)
	}
}
