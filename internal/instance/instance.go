package instance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/evaluator"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// ErrMaxRecursionDepth is reported when a chain of calls nests deeper than
// the host allows.
var ErrMaxRecursionDepth = errors.New("maximum recursion depth exceeded")

// Host is the process-wide context every instance of an engine shares.
type Host interface {
	Library() *model.Library
	Registry() *registry.Registry
	Compiler() *compiler.Compiler
	Refs() *evaluator.Table
	Pool() *scheduler.Pool
	Sink() diag.Sink
	Metrics() *metrics.Metrics
	MaxDepth() int
	// StoredParameter reads a value set on a parameter path. dep is
	// invalidated when the stored value changes, ok or not.
	StoredParameter(path string, guid uuid.UUID) (v cty.Value, ok bool, dep *query.Dependency)
	// AssetDependency is invalidated when the declarations of an asset
	// change.
	AssetDependency(asset string) *query.Dependency
}

// Key identifies a child instance within its parent. Two calls with equal
// keys share one instance and its cache.
type Key struct {
	Asset    string
	Terminal uuid.UUID
	// Site is the call-path-qualified address of the calling node.
	Site string
	// ParameterPath addresses the child's parameters in the store.
	ParameterPath string
	// Overrides is the canonical form of the call-site parameter values.
	Overrides string
	// GraphInputs binds the inputs declared by the asset.
	GraphInputs InputSource
	// FunctionInputs binds the inputs declared by a function terminal.
	FunctionInputs InputSource
}

// InputSource locates the values bound to the inputs of a called terminal:
// the input pins of the calling node, or the values the client bound on a
// root. The zero value binds nothing.
type InputSource struct {
	// Scope is the instance the calling node is evaluated in.
	Scope *Instance
	// Ref computes the terminal holding the calling node. A nil Ref with a
	// non-nil Scope reads the root's client-bound inputs.
	Ref  *evaluator.Ref
	Node string
}

func (s InputSource) resolve(ctx context.Context, q *query.Query, input uuid.UUID) (cty.Value, bool, error) {
	switch {
	case s.Scope == nil:
		return cty.NilVal, false, nil
	case s.Ref == nil:
		v, ok := s.Scope.inputs[input]
		return v, ok, nil
	}
	// Literal pins of the calling node live in its evaluator, so values
	// read through it go stale when that evaluator is swapped.
	q.Tracker().Add(s.Ref.Dependency())
	e, err := s.Ref.Get(ctx)
	if err != nil {
		return cty.NilVal, false, err
	}
	return e.EvaluateInput(ctx, s.Scope, q, s.Node, input)
}

// Instance is one terminal of one asset at one position of the call tree.
type Instance struct {
	host     Host
	parent   *Instance
	key      Key
	asset    string
	terminal uuid.UUID
	address  *nodeid.Address
	path     string
	depth    int

	overrides map[uuid.UUID]cty.Value
	inputs    map[uuid.UUID]cty.Value

	cache     *query.Cache
	destroyed atomic.Bool

	mu       sync.Mutex
	children map[Key]*Instance
	outputs  map[evaluator.Key]*evaluator.Ref
}

// NewRoot creates the instance a client evaluates. inputs binds declared
// graph inputs; unbound inputs use their defaults.
func NewRoot(host Host, asset string, terminal uuid.UUID, inputs map[uuid.UUID]cty.Value) *Instance {
	in := &Instance{
		host:     host,
		asset:    asset,
		terminal: terminal,
		path:     asset,
		inputs:   maps.Clone(inputs),
		cache:    query.NewCache(host.Metrics()),
		children: make(map[Key]*Instance),
		outputs:  make(map[evaluator.Key]*evaluator.Ref),
	}
	in.key = Key{Asset: asset, Terminal: terminal, ParameterPath: asset, GraphInputs: InputSource{Scope: in}}
	return in
}

// Asset returns the asset name.
func (in *Instance) Asset() string { return in.asset }

// Terminal returns the terminal guid.
func (in *Instance) Terminal() uuid.UUID { return in.terminal }

// Key returns the key the instance was created for.
func (in *Instance) Key() Key { return in.key }

// Parent returns the calling instance, or nil for a root.
func (in *Instance) Parent() *Instance { return in.parent }

// Depth is the number of calls between the root and this instance.
func (in *Instance) Depth() int { return in.depth }

// ParameterPath addresses the instance's parameters in the parameter store.
func (in *Instance) ParameterPath() string { return in.path }

// Callstack lists the call sites from the root to this instance.
func (in *Instance) Callstack() []string {
	var out []string
	for cur := in; cur.parent != nil; cur = cur.parent {
		out = append(out, cur.key.Site)
	}
	slices.Reverse(out)
	return out
}

// Children returns the child instances created so far.
func (in *Instance) Children() []*Instance {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Collect(maps.Values(in.children))
}

// ChildOptions configure a child instance when GetChild creates it.
type ChildOptions struct {
	Address   *nodeid.Address
	Overrides map[uuid.UUID]cty.Value
}

// GetChild returns the child for key, creating it with opts on first use.
// The depth limit is checked before anything is created.
func (in *Instance) GetChild(key Key, opts ChildOptions) (*Instance, error) {
	if limit := in.host.MaxDepth(); in.depth+1 > limit {
		return nil, fmt.Errorf("%w: %d nested calls at %s", ErrMaxRecursionDepth, limit, key.Site)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if c, ok := in.children[key]; ok {
		return c, nil
	}
	c := &Instance{
		host:      in.host,
		parent:    in,
		key:       key,
		asset:     key.Asset,
		terminal:  key.Terminal,
		address:   opts.Address,
		path:      key.ParameterPath,
		depth:     in.depth + 1,
		overrides: opts.Overrides,
		cache:     query.NewCache(in.host.Metrics()),
		children:  make(map[Key]*Instance),
		outputs:   make(map[evaluator.Key]*evaluator.Ref),
	}
	in.children[key] = c
	return c, nil
}

// CreateOutputEvaluatorRef returns the ref computing a declared output of
// the instance's terminal. The ref is created once per instance and shared
// process-wide through the host's table.
func (in *Instance) CreateOutputEvaluatorRef(output uuid.UUID) *evaluator.Ref {
	return in.ref(evaluator.Key{Asset: in.asset, Terminal: in.terminal, Output: output})
}

// CreateNodeEvaluatorRef returns the ref computing a queryable node, such
// as a preview.
func (in *Instance) CreateNodeEvaluatorRef(id string) *evaluator.Ref {
	return in.ref(evaluator.Key{Asset: in.asset, Terminal: in.terminal, Node: id})
}

func (in *Instance) ref(key evaluator.Key) *evaluator.Ref {
	in.mu.Lock()
	defer in.mu.Unlock()
	if r, ok := in.outputs[key]; ok {
		return r
	}
	r := in.host.Refs().Get(key, func() *evaluator.Ref {
		return evaluator.NewRef(key, in.host.Registry(), in.compile, in.host.Metrics())
	})
	in.outputs[key] = r
	return r
}

func (in *Instance) compile(ctx context.Context, key evaluator.Key) (*compiler.Carved, error) {
	a, ok := in.host.Library().Asset(key.Asset)
	if !ok {
		return nil, fmt.Errorf("asset %q is not loaded", key.Asset)
	}
	t, ok := a.TerminalByGuid(key.Terminal)
	if !ok {
		return nil, fmt.Errorf("asset %q has no terminal %s", key.Asset, key.Terminal)
	}
	l, err := in.host.Compiler().Lower(ctx, key.Asset, t.Name)
	if err != nil {
		return nil, err
	}
	if key.Node != "" {
		return compiler.CarveNode(l, key.Node)
	}
	return compiler.Carve(l, key.Output)
}

// Evaluate computes a declared output.
func (in *Instance) Evaluate(ctx context.Context, q *query.Query, output uuid.UUID) (cty.Value, error) {
	return in.CreateOutputEvaluatorRef(output).Evaluate(ctx, in, q)
}

// Destroy tears the instance and its children down. Evaluations still
// running in them fail with evaluator.ErrRuntimeDestroyed.
func (in *Instance) Destroy() {
	in.destroyed.Store(true)
	in.cache.Clear()
	for _, c := range in.Children() {
		c.Destroy()
	}
}

var _ evaluator.Scope = (*Instance)(nil)

func (in *Instance) Address() *nodeid.Address { return in.address }
func (in *Instance) Cache() *query.Cache      { return in.cache }
func (in *Instance) Pool() *scheduler.Pool    { return in.host.Pool() }
func (in *Instance) Sink() diag.Sink          { return in.host.Sink() }
func (in *Instance) Destroyed() bool          { return in.destroyed.Load() }

// GraphInput resolves an input through the sources bound in the instance
// key. Function inputs are looked up before the inputs of the asset.
func (in *Instance) GraphInput(ctx context.Context, q *query.Query, input uuid.UUID) (cty.Value, bool, error) {
	v, bound, err := in.key.FunctionInputs.resolve(ctx, q, input)
	if err != nil || bound {
		return v, bound, err
	}
	return in.key.GraphInputs.resolve(ctx, q, input)
}

// Parameter looks a parameter up in the store, then in the call-site
// overrides, then in the declared defaults of the asset and its bases.
func (in *Instance) Parameter(_ context.Context, q *query.Query, guid uuid.UUID) (cty.Value, error) {
	v, ok, dep := in.host.StoredParameter(in.path, guid)
	if dep != nil {
		q.Tracker().Add(dep)
	}
	if ok {
		return in.convertParameter(guid, v)
	}
	if v, ok := in.overrides[guid]; ok {
		return v, nil
	}
	q.Tracker().Add(in.host.AssetDependency(in.asset))
	d, ok := in.declaration(guid)
	if !ok {
		return cty.NilVal, fmt.Errorf("parameter %s is not declared by %q or its bases", guid, in.asset)
	}
	return d.DefaultOrZero(), nil
}

// declaration finds the nearest declaration of guid with a default along
// the base chain, or the nearest one without.
func (in *Instance) declaration(guid uuid.UUID) (*model.Declaration, bool) {
	var found *model.Declaration
	for _, a := range in.host.Library().BaseChain(in.asset) {
		d, ok := a.Parameter(guid)
		if !ok {
			continue
		}
		if d.HasDefault() {
			return d, true
		}
		if found == nil {
			found = d
		}
	}
	return found, found != nil
}

func (in *Instance) convertParameter(guid uuid.UUID, v cty.Value) (cty.Value, error) {
	d, ok := in.declaration(guid)
	if !ok {
		return v, nil
	}
	return d.Type.Convert(v)
}

// CallFunction evaluates an output of a function terminal of the same
// asset. The function shares the caller's parameters and asset inputs.
func (in *Instance) CallFunction(ctx context.Context, q *query.Query, site evaluator.CallSite, terminal, output uuid.UUID) (cty.Value, error) {
	src, err := in.sourceOf(site)
	if err != nil {
		return in.degrade(ctx, site, output, err)
	}
	key := Key{
		Asset:          in.asset,
		Terminal:       terminal,
		Site:           site.Address.String(),
		ParameterPath:  in.path,
		Overrides:      in.key.Overrides,
		GraphInputs:    in.key.GraphInputs,
		FunctionInputs: src,
	}
	child, err := in.GetChild(key, ChildOptions{Address: site.Address, Overrides: in.overrides})
	if err != nil {
		return in.degrade(ctx, site, output, err)
	}
	return child.call(ctx, q, site, output)
}

// CallGraph evaluates an output of another asset's main terminal with the
// parameter overrides set on the calling node.
func (in *Instance) CallGraph(ctx context.Context, q *query.Query, site evaluator.CallSite, asset string, output uuid.UUID) (cty.Value, error) {
	a, ok := in.host.Library().Asset(asset)
	if !ok {
		return cty.NilVal, fmt.Errorf("graph %q is not loaded", asset)
	}
	main, ok := a.MainTerminal()
	if !ok {
		return cty.NilVal, fmt.Errorf("graph %q has no main terminal", asset)
	}
	overrides, err := in.overridesFor(site, asset)
	if err != nil {
		return cty.NilVal, err
	}
	src, err := in.sourceOf(site)
	if err != nil {
		return in.degrade(ctx, site, output, err)
	}
	addr := site.Address.String()
	key := Key{
		Asset:         asset,
		Terminal:      main.Guid,
		Site:          addr,
		ParameterPath: addr,
		Overrides:     fingerprint(overrides),
		GraphInputs:   src,
	}
	child, err := in.GetChild(key, ChildOptions{Address: site.Address, Overrides: overrides})
	if err != nil {
		return in.degrade(ctx, site, output, err)
	}
	return child.call(ctx, q, site, output)
}

func (in *Instance) sourceOf(site evaluator.CallSite) (InputSource, error) {
	if site.Ref == nil {
		return InputSource{}, fmt.Errorf("call site %s is not evaluated through a ref", site.Address)
	}
	return InputSource{Scope: in, Ref: site.Ref, Node: site.Node}, nil
}

func (in *Instance) call(ctx context.Context, q *query.Query, site evaluator.CallSite, output uuid.UUID) (cty.Value, error) {
	return in.Evaluate(ctx, q.Enter(site.Address, q.Tracker()), output)
}

// degrade reports a failed call on the calling node and substitutes the
// typed empty value of the called output.
func (in *Instance) degrade(ctx context.Context, site evaluator.CallSite, output uuid.UUID, err error) (cty.Value, error) {
	var pin string
	zero := cty.NullVal(cty.DynamicPseudoType)
	if site.Op != nil {
		for _, p := range site.Op.Outputs() {
			if p.Decl.Guid == output {
				pin, zero = p.Name(), p.Type.Zero()
				break
			}
		}
	}
	in.host.Sink().Report(ctx, diag.Errorf(site.Address, pin, "%v", err))
	return zero, nil
}

func (in *Instance) overridesFor(site evaluator.CallSite, asset string) (map[uuid.UUID]cty.Value, error) {
	if site.Op == nil {
		return nil, nil
	}
	v, ok := site.Op.Property(corenodes.PropParameters)
	if !ok || v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("parameters must be an object, got %s", v.Type().FriendlyName())
	}
	out := make(map[uuid.UUID]cty.Value)
	chain := in.host.Library().BaseChain(asset)
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		d, ok := findParameter(chain, k.AsString())
		if !ok {
			return nil, fmt.Errorf("graph %q has no parameter %q", asset, k.AsString())
		}
		conv, err := d.Type.Convert(val)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", d.Name, err)
		}
		out[d.Guid] = conv
	}
	return out, nil
}

func findParameter(chain []*model.Asset, name string) (*model.Declaration, bool) {
	for _, a := range chain {
		snap, _ := a.Snapshot()
		if d, ok := model.FindDeclByName(snap.Parameters, name); ok {
			return d, true
		}
	}
	return nil, false
}

func fingerprint(values map[uuid.UUID]cty.Value) string {
	keys := slices.SortedFunc(maps.Keys(values), func(a, b uuid.UUID) int {
		return cmp.Compare(a.String(), b.String())
	})
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s;", k, values[k].GoString())
	}
	return sb.String()
}
