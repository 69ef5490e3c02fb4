package node

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Pin is a materialized pin of a Node.
type Pin struct {
	Decl    PinDecl
	Type    pintype.Type
	Default cty.Value
	dynamic bool
}

// Name is a shorthand for Decl.Name.
func (p *Pin) Name() string { return p.Decl.Name }

// Direction is a shorthand for Decl.Direction.
func (p *Pin) Direction() Direction { return p.Decl.Direction }

// IsDynamic reports whether the pin was added with AddDynamicPin.
func (p *Pin) IsDynamic() bool { return p.dynamic }

// Node is one instance of an operation type.
type Node struct {
	spec *Spec

	once       sync.Once
	pins       []*Pin
	byName     map[string]*Pin
	nextIndex  map[string]int
	properties map[string]cty.Value
}

// New creates an instance of spec. Pins are materialized lazily.
func New(spec *Spec) *Node {
	if spec == nil {
		panic("node: New called with nil spec")
	}
	return &Node{spec: spec, properties: make(map[string]cty.Value)}
}

// Spec returns the declaration the node was created from.
func (n *Node) Spec() *Spec { return n.spec }

// Type returns the operation type name.
func (n *Node) Type() string { return n.spec.Type }

func (n *Node) ensure() {
	n.once.Do(func() {
		n.byName = make(map[string]*Pin)
		n.nextIndex = make(map[string]int)
		for _, d := range n.spec.pins {
			n.insert(&Pin{Decl: d, Type: d.Type, Default: d.Default})
		}
		for _, v := range n.spec.variadic {
			for i := 0; i < v.MinArity; i++ {
				n.appendElement(v)
			}
		}
	})
}

func (n *Node) insert(p *Pin) {
	if _, dup := n.byName[p.Decl.Name]; dup {
		panic(fmt.Sprintf("node %s: duplicate pin %q", n.spec.Type, p.Decl.Name))
	}
	n.pins = append(n.pins, p)
	n.byName[p.Decl.Name] = p
}

// Pins returns all pins: static pins in declaration order, then the elements
// of every variadic group ordered by sort key, then dynamic pins.
func (n *Node) Pins() []*Pin {
	n.ensure()
	out := slices.Clone(n.pins)
	slices.SortStableFunc(out, func(a, b *Pin) int {
		if c := cmp.Compare(n.rank(a), n.rank(b)); c != 0 {
			return c
		}
		if a.Decl.Variadic == "" || a.dynamic {
			return 0
		}
		if c := cmp.Compare(n.groupIndex(a.Decl.Variadic), n.groupIndex(b.Decl.Variadic)); c != 0 {
			return c
		}
		return cmp.Compare(a.Decl.SortKey, b.Decl.SortKey)
	})
	return out
}

func (n *Node) groupIndex(group string) int {
	return slices.IndexFunc(n.spec.variadic, func(v VariadicDecl) bool { return v.Name == group })
}

func (n *Node) rank(p *Pin) int {
	switch {
	case p.dynamic:
		return 2
	case p.Decl.Variadic != "":
		return 1
	default:
		return 0
	}
}

// Inputs returns the input pins in Pins order.
func (n *Node) Inputs() []*Pin { return n.filter(Input) }

// Outputs returns the output pins in Pins order.
func (n *Node) Outputs() []*Pin { return n.filter(Output) }

func (n *Node) filter(dir Direction) []*Pin {
	var out []*Pin
	for _, p := range n.Pins() {
		if p.Decl.Direction == dir {
			out = append(out, p)
		}
	}
	return out
}

// Pin looks a pin up by name.
func (n *Node) Pin(name string) (*Pin, bool) {
	n.ensure()
	p, ok := n.byName[name]
	return p, ok
}

// MustPin is like Pin but panics when the pin does not exist.
func (n *Node) MustPin(name string) *Pin {
	p, ok := n.Pin(name)
	if !ok {
		panic(fmt.Sprintf("node %s: no pin %q", n.spec.Type, name))
	}
	return p
}

// Property returns a node property.
func (n *Node) Property(name string) (cty.Value, bool) {
	v, ok := n.properties[name]
	return v, ok
}

// StringProperty returns a string property or the empty string.
func (n *Node) StringProperty(name string) string {
	v, ok := n.properties[name]
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

// SetProperty sets a node property.
func (n *Node) SetProperty(name string, v cty.Value) {
	n.properties[name] = v
}

// Properties returns a copy of all node properties.
func (n *Node) Properties() map[string]cty.Value {
	return maps.Clone(n.properties)
}

// SetPinDefault sets the default value of an input pin, converting it into
// the pin's current type.
func (n *Node) SetPinDefault(name string, v cty.Value) error {
	p, ok := n.Pin(name)
	if !ok {
		return fmt.Errorf("node %s has no pin %q", n.spec.Type, name)
	}
	if p.Decl.Direction != Input {
		return fmt.Errorf("pin %q is an output and cannot have a default", name)
	}
	if p.Type.IsWildcard() {
		p.Default = v
		return nil
	}
	if !p.Type.HasDefault() {
		return fmt.Errorf("pin %q of type %s cannot have a default value", name, p.Type)
	}
	conv, err := p.Type.Convert(v)
	if err != nil {
		return fmt.Errorf("pin %q: %w", name, err)
	}
	p.Default = conv
	return nil
}

// AddDynamicPin adds a pin that is not part of the Spec. Binding nodes use
// it to mirror the declarations they refer to.
func (n *Node) AddDynamicPin(d PinDecl) *Pin {
	n.ensure()
	if d.Default == cty.NilVal && d.Direction == Input && d.Type.HasDefault() {
		d.Default = d.Type.Zero()
	}
	p := &Pin{Decl: d, Type: d.Type, Default: d.Default, dynamic: true}
	n.insert(p)
	return p
}

// Clone returns a deep copy of the node. Pin values are copied; cty values
// are immutable and shared.
func (n *Node) Clone() *Node {
	n.ensure()
	c := New(n.spec)
	c.ensureEmpty()
	for _, p := range n.pins {
		cp := *p
		c.pins = append(c.pins, &cp)
		c.byName[cp.Decl.Name] = &cp
	}
	maps.Copy(c.nextIndex, n.nextIndex)
	maps.Copy(c.properties, n.properties)
	return c
}

// ensureEmpty marks the node as materialized without creating pins.
func (n *Node) ensureEmpty() {
	n.once.Do(func() {
		n.byName = make(map[string]*Pin)
		n.nextIndex = make(map[string]int)
	})
}
