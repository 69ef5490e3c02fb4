package serializer

import (
	"github.com/samber/lo"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/serialized"
	"github.com/zclconf/go-cty/cty"
)

// build is the state of one Serialize call.
type build struct {
	s     *Serializer
	asset *model.Asset
	term  *model.Terminal
	graph *serialized.Graph

	nodes    []*builder
	byName   map[string]*builder
	links    []*link
	literals []*literal
}

// builder accumulates one serialized node.
type builder struct {
	src     *model.Node
	ref     *nodeid.Address
	op      *node.Node
	subPins []*serialized.Pin
	diags   diag.Diagnostics
}

func (nb *builder) errorf(pin, format string, args ...any) {
	nb.diags = nb.diags.Append(diag.Errorf(nb.ref, pin, format, args...))
}

// tryPromote promotes a pin when the node allows it and reports whether
// the pin type changed.
func (nb *builder) tryPromote(pin string, t pintype.Type) bool {
	p, ok := nb.op.Pin(pin)
	if !ok || p.Type == t || nb.op.CanPromote(pin, t) != nil {
		return false
	}
	nb.op.PromotePin(pin, t)
	return true
}

func (nb *builder) promoteTo(pin string, t pintype.Type) {
	if t.IsWildcard() {
		return
	}
	if err := nb.op.CanPromote(pin, t); err != nil {
		nb.errorf(pin, "%v", err)
		return
	}
	nb.op.PromotePin(pin, t)
}

// endpoint is one end of a link: an operation pin, or a member sub-pin.
type endpoint struct {
	b   *builder
	pin string
	sub *serialized.Pin
}

func (e endpoint) typ() pintype.Type {
	if e.sub != nil {
		return e.sub.Type
	}
	return e.b.op.MustPin(e.pin).Type
}

func (e endpoint) flags() node.PinFlags {
	if e.sub != nil {
		return e.sub.Flags
	}
	return e.b.op.MustPin(e.pin).Decl.Flags
}

type link struct {
	from, to endpoint
}

type literal struct {
	b     *builder
	pin   string
	value cty.Value
}

func (b *build) instantiate(n *model.Node) *builder {
	nb := &builder{src: n, ref: b.graph.Address().Child(n.Name)}
	op, err := b.s.reg.NewNode(n.Type)
	if err != nil {
		nb.errorf("", "%v", err)
		return nb
	}
	nb.op = op
	for _, k := range sortedKeys(n.Properties) {
		op.SetProperty(k, n.Properties[k])
	}
	b.sizeVariadic(nb)
	b.bind(nb)
	for _, pin := range sortedKeys(n.Promotions) {
		if _, ok := op.Pin(pin); !ok {
			nb.errorf(pin, "node %s has no pin %q to promote", op.Type(), pin)
			continue
		}
		nb.promoteTo(pin, n.Promotions[pin])
	}
	return nb
}

func (b *build) sizeVariadic(nb *builder) {
	op := nb.op
	for _, group := range sortedKeys(nb.src.Variadic) {
		want := nb.src.Variadic[group]
		if _, ok := op.Spec().VariadicGroup(group); !ok {
			nb.errorf(group, "node %s has no variadic group %q", op.Type(), group)
			continue
		}
		for len(op.VariadicPins(group)) < want {
			if _, err := op.AddPin(group); err != nil {
				nb.errorf(group, "%v", err)
				break
			}
		}
		for elems := op.VariadicPins(group); len(elems) > want; elems = op.VariadicPins(group) {
			if err := op.RemovePin(elems[len(elems)-1].Decl.Name); err != nil {
				nb.errorf(group, "%v", err)
				break
			}
		}
	}
}

func (b *build) bind(nb *builder) {
	op := nb.op
	switch op.Spec().Binding {
	case node.BindInput:
		name := op.StringProperty(corenodes.PropInput)
		d, found := model.FindDeclByName(b.graph.Inputs, name)
		if _, assigned := nb.src.Pins[corenodes.PinDefault]; assigned {
			t := pintype.Wildcard()
			if found {
				t = d.Type
			}
			op.AddDynamicPin(node.PinDecl{Name: corenodes.PinDefault, Direction: node.Input, Type: t})
		}
		if !found {
			return
		}
		corenodes.SetGuid(op, corenodes.PropGuid, d.Guid)
		op.SetProperty(corenodes.PropDefault, d.DefaultOrZero())
		nb.promoteTo(corenodes.PinValue, d.Type)

	case node.BindOutput:
		if d, ok := model.FindDeclByName(b.graph.Outputs, op.StringProperty(corenodes.PropOutput)); ok {
			corenodes.SetGuid(op, corenodes.PropGuid, d.Guid)
			nb.promoteTo(corenodes.PinValue, d.Type)
		}

	case node.BindParameter:
		if d, ok := model.FindDeclByName(b.graph.Parameters, op.StringProperty(corenodes.PropParameter)); ok {
			corenodes.SetGuid(op, corenodes.PropGuid, d.Guid)
			nb.promoteTo(corenodes.PinValue, d.Type)
		}

	case node.BindFunctionCall:
		name := op.StringProperty(corenodes.PropFunction)
		fn, ok := lo.Find(b.asset.Terminals, func(t *model.Terminal) bool { return t.Function && t.Name == name })
		if !ok {
			nb.errorf("", "function %q is not defined in asset %q", name, b.asset.Name)
			return
		}
		corenodes.SetGuid(op, corenodes.PropTerminal, fn.Guid)
		addCallPins(nb, fn.Inputs, fn.Outputs)

	case node.BindGraphCall:
		name := op.StringProperty(corenodes.PropGraph)
		callee, main, err := b.s.calleeDeclarations(name)
		if err != nil {
			nb.errorf("", "%v", err)
			return
		}
		addCallPins(nb, callee.Inputs, main.Outputs)
		b.checkOverrides(nb, callee)
	}
}

func addCallPins(nb *builder, inputs, outputs []*model.Declaration) {
	add := func(dir node.Direction, d *model.Declaration) {
		if _, clash := nb.op.Pin(d.Name); clash {
			nb.errorf(d.Name, "declaration %q clashes with another pin of the call", d.Name)
			return
		}
		pd := node.PinDecl{Name: d.Name, Direction: dir, Type: d.Type, Guid: d.Guid, Tooltip: d.Tooltip}
		if dir == node.Input && d.Type.HasDefault() {
			pd.Default = d.DefaultOrZero()
		}
		nb.op.AddDynamicPin(pd)
	}
	for _, d := range inputs {
		add(node.Input, d)
	}
	for _, d := range outputs {
		add(node.Output, d)
	}
}

func (b *build) checkOverrides(nb *builder, callee *model.Asset) {
	v, ok := nb.op.Property(corenodes.PropParameters)
	if !ok || v.IsNull() {
		return
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		nb.errorf("", "parameters must be an object, got %s", v.Type().FriendlyName())
		return
	}
	table := b.s.parameterTable(callee)
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		d, ok := model.FindDeclByName(table, k.AsString())
		if !ok {
			nb.errorf("", "graph %q has no parameter %q", callee.Name, k.AsString())
			continue
		}
		if _, err := d.Type.Convert(val); err != nil {
			nb.errorf("", "parameter %q: %v", d.Name, err)
		}
	}
}

func (b *build) assign(nb *builder) {
	if nb.op == nil {
		return
	}
	for _, name := range sortedKeys(nb.src.Pins) {
		a := nb.src.Pins[name]
		p, ok := nb.op.Pin(name)
		if !ok {
			nb.errorf(name, "node %s has no pin %q", nb.op.Type(), name)
			continue
		}
		if isOutput(p) {
			nb.errorf(name, "output pin %q cannot be assigned", name)
			continue
		}
		switch {
		case a.IsSplit():
			b.split(nb, p, a)
		case a.Link != nil:
			b.addLink(*a.Link, endpoint{b: nb, pin: name})
		default:
			b.literals = append(b.literals, &literal{b: nb, pin: name, value: a.Value})
		}
	}
}

func (b *build) split(nb *builder, p *node.Pin, a *model.PinAssign) {
	if !p.Type.IsComposite() {
		nb.errorf(p.Decl.Name, "pin %q of type %s cannot be split", p.Decl.Name, p.Type)
		return
	}
	for _, member := range sortedKeys(a.Members) {
		m, ok := p.Type.Member(member)
		if !ok {
			nb.errorf(p.Decl.Name, "type %s has no member %q", p.Type, member)
			continue
		}
		sub := &serialized.Pin{
			Name:      p.Decl.Name + "." + member,
			Direction: node.Input,
			Type:      m.Type,
			Flags:     p.Decl.Flags &^ node.FlagNoDefault,
			Default:   m.Type.Zero(),
			Parent:    p.Decl.Name,
			Member:    member,
		}
		nb.subPins = append(nb.subPins, sub)

		ma := a.Members[member]
		switch {
		case ma.IsSplit():
			nb.errorf(sub.Name, "member %q cannot be split further", member)
		case ma.Link != nil:
			b.addLink(*ma.Link, endpoint{b: nb, pin: sub.Name, sub: sub})
		default:
			v, err := m.Type.Convert(ma.Value)
			if err != nil {
				nb.errorf(sub.Name, "%v", err)
				continue
			}
			sub.Default = v
		}
	}
}

func (b *build) addLink(ref model.LinkRef, to endpoint) {
	src, ok := b.byName[ref.Node]
	if !ok {
		to.b.errorf(to.pin, "%s refers to unknown node %q", ref, ref.Node)
		return
	}
	if src.op == nil {
		return
	}
	p, ok := src.op.Pin(ref.Pin)
	if !ok || !isOutput(p) {
		to.b.errorf(to.pin, "%s: node %q has no output pin %q", ref, ref.Node, ref.Pin)
		return
	}
	from := endpoint{b: src, pin: ref.Pin}
	if ref.Member != "" {
		m, ok := p.Type.Member(ref.Member)
		if !ok {
			to.b.errorf(to.pin, "%s: pin %q of type %s has no member %q", ref, ref.Pin, p.Type, ref.Member)
			return
		}
		from = endpoint{b: src, pin: ref.Pin + "." + m.Name, sub: src.outputSubPin(p, m)}
	}
	b.links = append(b.links, &link{from: from, to: to})
}

func (nb *builder) outputSubPin(parent *node.Pin, m pintype.Member) *serialized.Pin {
	name := parent.Decl.Name + "." + m.Name
	if sp, ok := lo.Find(nb.subPins, func(sp *serialized.Pin) bool { return sp.Name == name }); ok {
		return sp
	}
	sp := &serialized.Pin{
		Name:      name,
		Direction: node.Output,
		Type:      m.Type,
		Parent:    parent.Decl.Name,
		Member:    m.Name,
	}
	nb.subPins = append(nb.subPins, sp)
	return sp
}
