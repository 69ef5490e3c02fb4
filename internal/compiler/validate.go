package compiler

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// addWildcardErrors reports pins whose type could not be inferred. Only
// nodes that feed a queryable node make the compilation fail.
func addWildcardErrors(s *state) {
	live := s.reachable()
	for _, n := range s.graph.Nodes() {
		for _, p := range n.Pins() {
			if !p.Type.IsWildcard() {
				continue
			}
			if live[n] {
				s.errorf(n, p.Name, "pin type cannot be inferred; link the pin to a typed pin")
			} else {
				s.warnf(n, p.Name, "pin type cannot be inferred")
			}
		}
	}
}

// addNoDefaultErrors reports unlinked inputs that have no usable default.
func addNoDefaultErrors(s *state) {
	live := s.reachable()
	for _, n := range s.graph.Nodes() {
		for _, p := range n.Inputs() {
			if !p.Flags.Has(node.FlagNoDefault) || p.IsLinked() {
				continue
			}
			if live[n] {
				s.errorf(n, p.Name, "pin must be linked")
			} else {
				s.warnf(n, p.Name, "pin is not linked")
			}
		}
	}
}

func checkParameters(s *state) {
	s.checkBound(node.BindParameter, corenodes.PropParameter, "parameter", s.src.Parameters)
}

func checkInputs(s *state) {
	s.checkBound(node.BindInput, corenodes.PropInput, "input", s.src.Inputs)
}

// checkOutputs validates Output nodes. Every declared output should be
// published by exactly one node.
func checkOutputs(s *state) {
	s.checkBound(node.BindOutput, corenodes.PropOutput, "output", s.src.Outputs)

	owners := make(map[uuid.UUID]*graphir.Node)
	for _, n := range s.graph.NodesWhere(bound(node.BindOutput)) {
		guid, ok := corenodes.Guid(n.Op)
		if !ok {
			continue
		}
		if first, dup := owners[guid]; dup {
			s.errorf(n, "", "output %q is already published by %s", n.Op.StringProperty(corenodes.PropOutput), first.ID)
			continue
		}
		owners[guid] = n
	}
	for _, d := range s.src.Outputs {
		if _, ok := owners[d.Guid]; !ok {
			s.warnf(nil, "", "output %q is not published by any node", d.Name)
		}
	}
}

// checkBound verifies that every node with the given binding refers to a
// declaration of the table.
func (s *state) checkBound(b node.Binding, prop, what string, table []*model.Declaration) {
	for _, n := range s.graph.NodesWhere(bound(b)) {
		name := n.Op.StringProperty(prop)
		guid, ok := corenodes.Guid(n.Op)
		if !ok {
			s.errorf(n, "", "%s %q is not declared", what, name)
			continue
		}
		if _, ok := model.FindDecl(table, guid); !ok {
			s.errorf(n, "", "%s %q no longer exists", what, name)
		}
	}
}

func bound(b node.Binding) func(*graphir.Node) bool {
	return func(n *graphir.Node) bool { return n.Binding() == b }
}
