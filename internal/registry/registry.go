package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// AnyOutput registers a compute function for every output pin of a node
// type, including dynamic pins that are not part of the Spec.
const AnyOutput = "*"

// Module is the interface that all node libraries implement to be registered.
type Module interface {
	Register(r *Registry)
}

type computeKey struct {
	Type string
	Pin  string
}

// Registry holds all registered node specs and compute functions for a
// single engine instance.
type Registry struct {
	specs   map[string]*node.Spec
	compute map[computeKey]node.ComputeFunc
}

// New creates an empty Registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{
		specs:   make(map[string]*node.Spec),
		compute: make(map[computeKey]node.ComputeFunc),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterNode registers a node spec.
func (r *Registry) RegisterNode(spec *node.Spec) {
	if _, exists := r.specs[spec.Type]; exists {
		panic(fmt.Sprintf("node type '%s' already registered", spec.Type))
	}
	slog.Debug("Registering node type.", "type", spec.Type)
	r.specs[spec.Type] = spec
}

// RegisterCompute registers the function computing one output pin.
func (r *Registry) RegisterCompute(typ, pin string, fn node.ComputeFunc) {
	key := computeKey{Type: typ, Pin: pin}
	if _, exists := r.compute[key]; exists {
		panic(fmt.Sprintf("compute function for '%s.%s' already registered", typ, pin))
	}
	slog.Debug("Registering compute function.", "type", typ, "pin", pin)
	r.compute[key] = fn
}

// Register registers a spec together with its compute functions keyed by
// output pin name.
func (r *Registry) Register(spec *node.Spec, fns map[string]node.ComputeFunc) {
	r.RegisterNode(spec)
	for pin, fn := range fns {
		r.RegisterCompute(spec.Type, pin, fn)
	}
}

// Spec returns the spec of a node type.
func (r *Registry) Spec(typ string) (*node.Spec, bool) {
	s, ok := r.specs[typ]
	return s, ok
}

// Compute returns the function computing an output pin of a node type.
// Pins of a variadic output group resolve through the group name, and any
// pin falls back to an AnyOutput registration.
func (r *Registry) Compute(typ, pin string) (node.ComputeFunc, bool) {
	if fn, ok := r.compute[computeKey{Type: typ, Pin: pin}]; ok {
		return fn, true
	}
	fn, ok := r.compute[computeKey{Type: typ, Pin: AnyOutput}]
	return fn, ok
}

// ComputeFor resolves the compute function for an output pin of a node
// instance, following variadic group membership.
func (r *Registry) ComputeFor(n *node.Node, pin string) (node.ComputeFunc, bool) {
	if p, ok := n.Pin(pin); ok && p.Decl.Variadic != "" {
		if fn, ok := r.Compute(n.Type(), p.Decl.Variadic); ok {
			return fn, true
		}
	}
	return r.Compute(n.Type(), pin)
}

// NewNode instantiates a registered node type.
func (r *Registry) NewNode(typ string) (*node.Node, error) {
	spec, ok := r.specs[typ]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
	return node.New(spec), nil
}

// Types returns all registered node type names in lexical order.
func (r *Registry) Types() []string {
	types := lo.Keys(r.specs)
	slices.Sort(types)
	return types
}
