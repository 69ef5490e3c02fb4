package serializer

import (
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/serialized"
)

// infer resolves wildcard pins from their links. Literal values only seed a
// type once links stop making progress, one literal at a time. Every step
// either resolves a wildcard or turns a scalar pin or group into a buffer,
// so the loop terminates.
func (b *build) infer() {
	pairs := b.localPairs()
	for {
		for b.propagate(pairs) {
		}
		if !b.seedLiteral() {
			return
		}
	}
}

func (b *build) propagate(pairs [][2]*builder) bool {
	changed := false
	for _, l := range b.links {
		if b.unify(l) {
			changed = true
		}
	}
	for _, pair := range pairs {
		decl, usage := pair[0], pair[1]
		dt := decl.op.MustPin(corenodes.PinValue).Type
		ut := usage.op.MustPin(corenodes.PinValue).Type
		switch {
		case ut.IsWildcard() && !dt.IsWildcard():
			changed = usage.tryPromote(corenodes.PinValue, dt) || changed
		case dt.IsWildcard() && !ut.IsWildcard():
			changed = decl.tryPromote(corenodes.PinValue, ut) || changed
		}
	}
	return changed
}

func (b *build) unify(l *link) bool {
	from, to := l.from.typ(), l.to.typ()
	switch {
	case to.IsWildcard() && !from.IsWildcard() && l.to.sub == nil:
		return l.to.b.tryPromote(l.to.pin, from)
	case from.IsWildcard() && !to.IsWildcard() && l.from.sub == nil:
		return l.from.b.tryPromote(l.from.pin, to)
	case from.IsBuffer() && to.IsScalar() && l.to.sub == nil && l.to.flags().Has(node.FlagTemplate):
		if !from.InnerType().CanCastTo(to) {
			return false
		}
		return l.to.b.tryPromote(l.to.pin, to.BufferType())
	case from.IsBuffer() && to.IsScalar() && l.to.sub == nil && from.InnerType() == to:
		// The group was resolved from a scalar link first; widen it.
		return l.to.b.tryPromote(l.to.pin, from)
	}
	return false
}

// localPairs matches every local variable usage with its declaration.
// Ambiguous or dangling names are left to the compiler to report.
func (b *build) localPairs() [][2]*builder {
	decls := make(map[string][]*builder)
	var usages []*builder
	for _, nb := range b.nodes {
		if nb.op == nil {
			continue
		}
		switch nb.op.Spec().Binding {
		case node.BindLocalDeclaration:
			name := nb.op.StringProperty(corenodes.PropName)
			decls[name] = append(decls[name], nb)
		case node.BindLocalUsage:
			usages = append(usages, nb)
		}
	}
	var pairs [][2]*builder
	for _, u := range usages {
		if d := decls[u.op.StringProperty(corenodes.PropName)]; len(d) == 1 {
			pairs = append(pairs, [2]*builder{d[0], u})
		}
	}
	return pairs
}

func (b *build) seedLiteral() bool {
	for _, lit := range b.literals {
		p := lit.b.op.MustPin(lit.pin)
		if !p.Type.IsWildcard() {
			continue
		}
		if t, ok := pintype.FromCty(lit.value.Type()); ok && lit.b.tryPromote(lit.pin, t) {
			return true
		}
	}
	return false
}

func (b *build) applyLiterals() {
	for _, lit := range b.literals {
		if err := lit.b.op.SetPinDefault(lit.pin, lit.value); err != nil {
			lit.b.errorf(lit.pin, "%v", err)
		}
	}
}

// emit writes the built nodes and links into the serialized graph.
func (b *build) emit() {
	for _, nb := range b.nodes {
		sn := &serialized.Node{Name: nb.src.Name, Ref: nb.ref, Op: nb.op}
		if nb.op != nil {
			for _, p := range nb.op.Pins() {
				sn.AddPin(&serialized.Pin{
					Name:      p.Decl.Name,
					Direction: p.Decl.Direction,
					Type:      p.Type,
					Flags:     p.Decl.Flags,
					Default:   p.Default,
				})
			}
			for _, sp := range nb.subPins {
				refreshSubPin(nb.op, sp)
				sn.AddPin(sp)
			}
		}
		sn.Diagnostics = nb.diags
		b.graph.AddNode(sn)
	}
	for _, l := range b.links {
		from := serialized.PinRef{Node: l.from.b.src.Name, Pin: l.from.pin}
		to := serialized.PinRef{Node: l.to.b.src.Name, Pin: l.to.pin}
		if err := b.graph.Link(from, to); err != nil {
			sn, _ := b.graph.Node(to.Node)
			sn.Diagnostics = sn.Diagnostics.Append(diag.Errorf(l.to.b.ref, to.Pin, "%v", err))
		}
	}
}

// refreshSubPin follows a parent pin that became a buffer after the
// sub-pin was created.
func refreshSubPin(op *node.Node, sp *serialized.Pin) {
	parent, ok := op.Pin(sp.Parent)
	if !ok {
		return
	}
	m, ok := parent.Type.Member(sp.Member)
	if !ok || m.Type == sp.Type {
		return
	}
	sp.Type = m.Type
	if sp.Direction != node.Input {
		return
	}
	if v, err := m.Type.Convert(sp.Default); err == nil {
		sp.Default = v
	} else {
		sp.Default = m.Type.Zero()
	}
}
