package node

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Spec is the immutable declaration of an operation type.
type Spec struct {
	Type     string
	Category string
	Tooltip  string
	Binding  Binding
	// Queryable nodes are roots for dead-code elimination.
	Queryable bool
	// LazyInputs nodes pull their inputs from inside their compute function
	// instead of having them prefetched.
	LazyInputs bool
	Expand     ExpandFunc

	pins     []PinDecl
	variadic []VariadicDecl
}

// Pins returns the static pin declarations in declaration order.
func (s *Spec) Pins() []PinDecl {
	return slices.Clone(s.pins)
}

// VariadicGroups returns the variadic group declarations.
func (s *Spec) VariadicGroups() []VariadicDecl {
	return slices.Clone(s.variadic)
}

// VariadicGroup looks up a variadic group by name.
func (s *Spec) VariadicGroup(name string) (VariadicDecl, bool) {
	for _, v := range s.variadic {
		if v.Name == name {
			return v, true
		}
	}
	return VariadicDecl{}, false
}

// Pin looks up a static pin declaration.
func (s *Spec) Pin(name string) (PinDecl, bool) {
	for _, p := range s.pins {
		if p.Name == name {
			return p, true
		}
	}
	return PinDecl{}, false
}

// IsTemplate reports whether the compiler expands this node in place.
func (s *Spec) IsTemplate() bool {
	return s.Expand != nil
}

// OutputNames lists static and variadic output pin names that need a
// compute function.
func (s *Spec) OutputNames() []string {
	var out []string
	for _, p := range s.pins {
		if p.Direction == Output {
			out = append(out, p.Name)
		}
	}
	for _, v := range s.variadic {
		if v.Direction == Output {
			out = append(out, v.Name)
		}
	}
	return out
}

// PinOption customizes a pin declaration.
type PinOption func(*PinDecl)

// WithDefault sets the default value used when the pin is not linked.
func WithDefault(v cty.Value) PinOption {
	return func(d *PinDecl) { d.Default = v }
}

// Template marks the pin as a template pin.
func Template() PinOption {
	return func(d *PinDecl) { d.Flags |= FlagTemplate }
}

// NoDefault requires the pin to be linked.
func NoDefault() PinOption {
	return func(d *PinDecl) { d.Flags |= FlagNoDefault }
}

// Virtual marks a compile-time-only input.
func Virtual() PinOption {
	return func(d *PinDecl) { d.Flags |= FlagVirtual }
}

// Hidden hides the pin from authors.
func Hidden() PinOption {
	return func(d *PinDecl) { d.Flags |= FlagHidden }
}

// InGroup ties the pin to a wildcard group.
func InGroup(group string) PinOption {
	return func(d *PinDecl) { d.Group = group }
}

// Tooltip documents the pin.
func Tooltip(text string) PinOption {
	return func(d *PinDecl) { d.Tooltip = text }
}

// Builder assembles a Spec. Builders are used from package-level
// registration code and panic on malformed declarations.
type Builder struct {
	spec  Spec
	names map[string]struct{}
}

// Define starts the declaration of an operation type.
func Define(typ string) *Builder {
	return &Builder{
		spec:  Spec{Type: typ},
		names: make(map[string]struct{}),
	}
}

func (b *Builder) claim(name string) {
	if _, dup := b.names[name]; dup {
		panic(fmt.Sprintf("node %s: pin %q declared twice", b.spec.Type, name))
	}
	b.names[name] = struct{}{}
}

func (b *Builder) pin(dir Direction, name string, t pintype.Type, opts []PinOption) *Builder {
	b.claim(name)
	d := PinDecl{Name: name, Direction: dir, Type: t}
	for _, opt := range opts {
		opt(&d)
	}
	if d.Default == cty.NilVal && dir == Input && t.HasDefault() {
		d.Default = t.Zero()
	}
	b.spec.pins = append(b.spec.pins, d)
	return b
}

// Input declares an input pin.
func (b *Builder) Input(name string, t pintype.Type, opts ...PinOption) *Builder {
	return b.pin(Input, name, t, opts)
}

// Output declares an output pin.
func (b *Builder) Output(name string, t pintype.Type, opts ...PinOption) *Builder {
	return b.pin(Output, name, t, opts)
}

// VariadicInput declares a variadic group of input pins.
func (b *Builder) VariadicInput(name string, t pintype.Type, minArity int, opts ...PinOption) *Builder {
	b.claim(name)
	d := PinDecl{Name: name, Type: t}
	for _, opt := range opts {
		opt(&d)
	}
	if d.Default == cty.NilVal && t.HasDefault() {
		d.Default = t.Zero()
	}
	b.spec.variadic = append(b.spec.variadic, VariadicDecl{
		Name:      name,
		Direction: Input,
		Type:      t,
		Flags:     d.Flags,
		Default:   d.Default,
		Group:     d.Group,
		MinArity:  minArity,
		Tooltip:   d.Tooltip,
	})
	return b
}

// Category sets the palette category.
func (b *Builder) Category(c string) *Builder {
	b.spec.Category = c
	return b
}

// Describe sets the node tooltip.
func (b *Builder) Describe(text string) *Builder {
	b.spec.Tooltip = text
	return b
}

// Bind sets the structural role of the node.
func (b *Builder) Bind(kind Binding) *Builder {
	b.spec.Binding = kind
	return b
}

// Queryable marks the node as an evaluation root.
func (b *Builder) Queryable() *Builder {
	b.spec.Queryable = true
	return b
}

// LazyInputs disables input prefetching.
func (b *Builder) LazyInputs() *Builder {
	b.spec.LazyInputs = true
	return b
}

// Expand turns the node into a template expanded by fn at compile time.
func (b *Builder) Expand(fn ExpandFunc) *Builder {
	b.spec.Expand = fn
	return b
}

// Build returns the finished Spec.
func (b *Builder) Build() *Spec {
	if b.spec.Type == "" {
		panic("node: spec without a type name")
	}
	spec := b.spec
	spec.pins = slices.Clone(b.spec.pins)
	spec.variadic = slices.Clone(b.spec.variadic)
	return &spec
}
