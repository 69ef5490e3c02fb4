package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// ErrRuntimeDestroyed is returned when the instance an evaluation runs in
// was torn down while the evaluation was in flight.
var ErrRuntimeDestroyed = errors.New("runtime destroyed")

// Key identifies what an evaluator computes: one declared output of a
// terminal, or a queryable node such as a preview when Node is set.
type Key struct {
	Asset    string
	Terminal uuid.UUID
	Output   uuid.UUID
	Node     string
}

func (k Key) String() string {
	if k.Node != "" {
		return fmt.Sprintf("%s/%s/%s", k.Asset, k.Terminal, k.Node)
	}
	return fmt.Sprintf("%s/%s/%s", k.Asset, k.Terminal, k.Output)
}

// CallSite describes the node making a function or graph call.
type CallSite struct {
	// Evaluator contains the node.
	Evaluator *Evaluator
	// Ref is the ref Evaluator was compiled for. It is nil for evaluators
	// linked directly.
	Ref *Ref
	// Node is the node id inside that evaluator.
	Node string
	Op   *node.Node
	// Address is the call-path-qualified address of the node.
	Address *nodeid.Address
}

// Scope is the instance an evaluation runs in. It owns the value cache and
// answers everything that crosses the boundary of the terminal graph.
type Scope interface {
	// Address qualifies node refs in diagnostics. The root instance
	// returns nil.
	Address() *nodeid.Address
	Cache() *query.Cache
	Pool() *scheduler.Pool
	Sink() diag.Sink
	Destroyed() bool

	GraphInput(ctx context.Context, q *query.Query, input uuid.UUID) (cty.Value, bool, error)
	Parameter(ctx context.Context, q *query.Query, parameter uuid.UUID) (cty.Value, error)
	CallFunction(ctx context.Context, q *query.Query, site CallSite, terminal, output uuid.UUID) (cty.Value, error)
	CallGraph(ctx context.Context, q *query.Query, site CallSite, asset string, output uuid.UUID) (cty.Value, error)
}

// Evaluator is an immutable, linked terminal graph with a single root pin.
type Evaluator struct {
	key      Key
	owner    *Ref
	nodes    map[string]*rnode
	root     *rnode
	rootPin  string
	snapshot graphir.Snapshot
}

// Key returns what the evaluator computes.
func (e *Evaluator) Key() Key { return e.key }

// Snapshot returns the canonical form of the graph the evaluator was
// linked from.
func (e *Evaluator) Snapshot() graphir.Snapshot { return e.snapshot }

// Len returns the number of runtime nodes.
func (e *Evaluator) Len() int { return len(e.nodes) }

// Root returns the id of the root node and the pin whose value is the
// result.
func (e *Evaluator) Root() (id, pin string) { return e.root.id, e.rootPin }

// HasNode reports whether the graph contains a node.
func (e *Evaluator) HasNode(id string) bool {
	_, ok := e.nodes[id]
	return ok
}

// Evaluate computes the root pin.
func (e *Evaluator) Evaluate(ctx context.Context, sc Scope, q *query.Query) (cty.Value, error) {
	return e.input(ctx, sc, q, e.root, e.rootPin)
}

// EvaluateInput computes the input pin of node id that mirrors the
// declaration guid. Called graphs use it to read the pins of the node that
// called them. bound is false when the node or the pin no longer exists.
func (e *Evaluator) EvaluateInput(ctx context.Context, sc Scope, q *query.Query, id string, guid uuid.UUID) (v cty.Value, bound bool, err error) {
	n, ok := e.nodes[id]
	if !ok {
		return cty.NilVal, false, nil
	}
	for _, name := range n.order {
		if n.inputs[name].guid == guid {
			v, err := e.input(ctx, sc, q, n, name)
			return v, true, err
		}
	}
	return cty.NilVal, false, nil
}

func (e *Evaluator) input(ctx context.Context, sc Scope, q *query.Query, n *rnode, pin string) (cty.Value, error) {
	b, ok := n.inputs[pin]
	if !ok {
		return cty.NilVal, fmt.Errorf("%s has no input %q", n.ref, pin)
	}
	if b.source == nil {
		return b.value, nil
	}
	v, err := e.output(ctx, sc, q, b.source, b.pin)
	if err != nil {
		return cty.NilVal, err
	}
	conv, err := b.typ.Convert(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s:%s: %w", n.ref, pin, err)
	}
	return conv, nil
}

func (e *Evaluator) output(ctx context.Context, sc Scope, q *query.Query, n *rnode, pin string) (cty.Value, error) {
	if sc.Destroyed() {
		return cty.NilVal, ErrRuntimeDestroyed
	}
	if err := ctx.Err(); err != nil {
		return cty.NilVal, err
	}
	out, ok := n.outputs[pin]
	if !ok {
		return cty.NilVal, fmt.Errorf("%s has no output %q", n.ref, pin)
	}

	key := query.Key{ID: out.id, Fingerprint: q.Fingerprint()}
	cache := sc.Cache()
	for {
		f, owner := cache.Claim(key)
		if owner {
			return e.own(ctx, sc, q, n, pin, out, key, f)
		}
		var (
			v    cty.Value
			deps map[*query.Dependency]uint64
		)
		err := sc.Pool().Suspend(ctx, func() error {
			var err error
			v, deps, err = f.Wait(ctx)
			return err
		})
		if err != nil && ctx.Err() == nil && abandoned(err) {
			// The owning request was cancelled and its slot released.
			continue
		}
		q.Tracker().Merge(deps)
		return v, err
	}
}

func (e *Evaluator) own(ctx context.Context, sc Scope, q *query.Query, n *rnode, pin string, out *output, key query.Key, f *query.Future) (cty.Value, error) {
	tracker := query.NewTracker()
	if e.owner != nil {
		tracker.Add(e.owner.dep)
	}
	v, err := e.compute(ctx, sc, q.WithTracker(tracker), n, pin, out)
	deps := tracker.Deps()
	sc.Cache().Resolve(key, f, v, err, deps)
	q.Tracker().Merge(deps)
	return v, err
}

func (e *Evaluator) compute(ctx context.Context, sc Scope, q *query.Query, n *rnode, pin string, out *output) (cty.Value, error) {
	if out.compute == nil {
		return cty.NilVal, fmt.Errorf("%s: no compute function for output %q", n.ref, pin)
	}
	if !n.lazy {
		if err := e.prefetch(ctx, sc, q, n); err != nil {
			return cty.NilVal, err
		}
	}

	c := &call{e: e, sc: sc, q: q, n: n, pin: pin}
	v, err := out.compute(ctx, c)
	if err == nil {
		v, err = out.typ.Convert(v)
	}
	if err != nil {
		if fatal(ctx, err) {
			return cty.NilVal, err
		}
		sc.Sink().Report(ctx, diag.Errorf(c.Ref(), pin, "%v", err))
		return out.typ.Zero(), nil
	}
	return v, nil
}

// prefetch evaluates the linked inputs of n in parallel so the compute
// function finds them in the cache.
func (e *Evaluator) prefetch(ctx context.Context, sc Scope, q *query.Query, n *rnode) error {
	linked := n.linked()
	if len(linked) < 2 {
		return nil
	}
	g, _ := sc.Pool().Group(ctx)
	for _, name := range linked {
		g.Go(func(ctx context.Context) error {
			_, err := e.input(ctx, sc, q, n, name)
			return err
		})
	}
	if err := g.Wait(); err != nil && fatal(ctx, err) {
		return err
	}
	return nil
}

func abandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// fatal reports whether an error must abort the evaluation instead of
// degrading the value of one pin.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrRuntimeDestroyed)
}
