package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/serialized"
)

// state is shared by the passes of one compilation.
type state struct {
	ctx    context.Context
	logger *slog.Logger
	reg    *registry.Registry
	opts   Options
	src    *serialized.Graph
	base   *nodeid.Address
	graph  *graphir.Graph
	diags  diag.Diagnostics
}

func (s *state) errorf(n *graphir.Node, pin, format string, args ...any) {
	s.diags = s.diags.Append(diag.Errorf(s.ref(n), pin, format, args...))
}

func (s *state) warnf(n *graphir.Node, pin, format string, args ...any) {
	s.diags = s.diags.Append(diag.Warningf(s.ref(n), pin, format, args...))
}

func (s *state) ref(n *graphir.Node) *nodeid.Address {
	if n == nil {
		return s.base
	}
	return n.Ref
}

// addNode instantiates a registered operation as a new IR node. The id is
// derived from hint and made unique.
func (s *state) addNode(hint, typ string, kind graphir.Kind) (*graphir.Node, error) {
	op, err := s.reg.NewNode(typ)
	if err != nil {
		return nil, err
	}
	id := s.graph.UniqueID(hint)
	return s.graph.AddNode(id, s.base.Child(id), kind, op), nil
}

// promote re-types a pin of the node's operation when that is allowed and
// mirrors the operation's pin types back onto the IR pins.
func promote(n *graphir.Node, pin string, t pintype.Type) error {
	if t.IsWildcard() {
		return nil
	}
	if err := n.Op.CanPromote(pin, t); err != nil {
		return err
	}
	n.Op.PromotePin(pin, t)
	syncPins(n)
	return nil
}

// syncPins copies pin types from the operation to the IR pins. Defaults of
// pins whose type changed are converted along.
func syncPins(n *graphir.Node) {
	for _, p := range n.Op.Pins() {
		ip, ok := n.Pin(p.Decl.Name)
		if !ok || ip.Type == p.Type {
			continue
		}
		ip.Type = p.Type
		if ip.IsInput() {
			ip.Default = p.Default
		}
	}
}

func kindOf(spec *node.Spec) graphir.Kind {
	switch {
	case spec.Binding == node.BindPassthrough:
		return graphir.KindPassthrough
	case spec.IsTemplate():
		return graphir.KindTemplate
	default:
		return graphir.KindStruct
	}
}

// idHint builds a readable id for a node added next to n.
func idHint(n *graphir.Node, suffix string) string {
	return n.ID + "_" + strings.ToLower(suffix)
}

func queryable(n *graphir.Node) bool {
	return n.Op != nil && n.Op.Spec().Queryable
}

// reachable returns the nodes feeding a queryable node. Local variable
// usages reach their declarations by name.
func (s *state) reachable() map[*graphir.Node]bool {
	decls := make(map[string][]*graphir.Node)
	for _, n := range s.graph.Nodes() {
		if n.Binding() == node.BindLocalDeclaration {
			name := n.Op.StringProperty(corenodes.PropName)
			decls[name] = append(decls[name], n)
		}
	}
	roots := s.graph.NodesWhere(queryable)
	seen := make(map[*graphir.Node]bool)
	for len(roots) > 0 {
		var next []*graphir.Node
		for n := range s.graph.Upstream(roots...) {
			if seen[n] {
				continue
			}
			seen[n] = true
			if n.Binding() == node.BindLocalUsage {
				next = append(next, decls[n.Op.StringProperty(corenodes.PropName)]...)
			}
		}
		roots = next
	}
	return seen
}

func pinLabel(n *graphir.Node, pin string) string {
	return fmt.Sprintf("%s:%s", n.ID, pin)
}
