package compiler

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// removeLocalVariables wires the consumers of every usage to whatever feeds
// the matching declaration, then drops both kinds of nodes.
func removeLocalVariables(s *state) {
	decls := make(map[string][]*graphir.Node)
	for _, n := range s.graph.NodesWhere(bound(node.BindLocalDeclaration)) {
		name := n.Op.StringProperty(corenodes.PropName)
		decls[name] = append(decls[name], n)
	}
	for name, ds := range decls {
		if len(ds) > 1 {
			for _, d := range ds {
				s.errorf(d, "", "local variable %q is declared %d times", name, len(ds))
			}
		}
	}

	usages := s.graph.NodesWhere(bound(node.BindLocalUsage))
	for _, u := range usages {
		name := u.Op.StringProperty(corenodes.PropName)
		ds := decls[name]
		switch len(ds) {
		case 0:
			s.errorf(u, "", "local variable %q is not declared", name)
		case 1:
			s.resolveUsage(u, ds[0])
		}
	}

	for _, u := range usages {
		s.graph.RemoveNode(u)
	}
	for _, ds := range decls {
		for _, d := range ds {
			s.graph.RemoveNode(d)
		}
	}
	s.logger.Debug("Removed local variables.", "declarations", len(decls), "usages", len(usages))
}

func (s *state) resolveUsage(u, decl *graphir.Node) {
	in := decl.MustPin(corenodes.PinValue)
	out := u.MustPin(corenodes.PinValue)
	src := in.Source()
	consumers := out.Links()
	out.BreakAllLinks()
	for _, c := range consumers {
		switch {
		case src != nil && src.Node() == u:
			s.errorf(u, "", "local variable %q is declared with its own value", u.Op.StringProperty(corenodes.PropName))
			return
		case src != nil:
			s.graph.MakeLink(src, c)
		default:
			c.Default = in.Default
		}
	}
}
