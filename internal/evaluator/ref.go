package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/singleflight"
)

// ErrNotCompiled is returned when the graph behind a ref failed to compile.
var ErrNotCompiled = errors.New("evaluator is not compiled")

// State is the lifecycle state of a Ref.
type State uint8

const (
	Uncompiled State = iota
	Compiled
	Failed
)

func (s State) String() string {
	switch s {
	case Uncompiled:
		return "uncompiled"
	case Compiled:
		return "compiled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// CompileFunc lowers and carves the graph an evaluator key names.
type CompileFunc func(ctx context.Context, key Key) (*compiler.Carved, error)

// Ref holds the current evaluator of a key. It compiles lazily on first
// use and swaps the evaluator when a recompile yields a different graph.
// Every swap invalidates the ref's dependency, which drops the cached
// values computed through the old evaluator.
type Ref struct {
	key     Key
	reg     *registry.Registry
	compile CompileFunc
	dep     *query.Dependency
	metrics *metrics.Metrics
	flight  singleflight.Group

	// recompiling serializes Recompile calls.
	recompiling sync.Mutex

	mu      sync.Mutex
	state   State
	current *Evaluator
	err     error
}

// NewRef returns an uncompiled ref. m may be nil.
func NewRef(key Key, reg *registry.Registry, compile CompileFunc, m *metrics.Metrics) *Ref {
	return &Ref{
		key:     key,
		reg:     reg,
		compile: compile,
		dep:     query.NewDependency("evaluator " + key.String()),
		metrics: m,
	}
}

// Key returns the key the ref was created for.
func (r *Ref) Key() Key { return r.key }

// Dependency is invalidated whenever the evaluator changes.
func (r *Ref) Dependency() *query.Dependency { return r.dep }

// State returns the current lifecycle state.
func (r *Ref) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the compile error of a failed ref.
func (r *Ref) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Ref) loaded() (e *Evaluator, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Compiled:
		return r.current, true, nil
	case Failed:
		return nil, true, fmt.Errorf("%w: %s: %w", ErrNotCompiled, r.key, r.err)
	default:
		return nil, false, nil
	}
}

// Get returns the current evaluator, compiling it on first use.
func (r *Ref) Get(ctx context.Context) (*Evaluator, error) {
	if e, ok, err := r.loaded(); ok {
		return e, err
	}
	_, err, _ := r.flight.Do("compile", func() (any, error) {
		if _, ok, _ := r.loaded(); ok {
			return nil, nil
		}
		e, err := r.build(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.state != Uncompiled {
			return nil, nil
		}
		if err != nil {
			r.state, r.err = Failed, err
			return nil, nil
		}
		r.state, r.current = Compiled, e
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if e, ok, err := r.loaded(); ok {
		return e, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotCompiled, r.key)
}

func (r *Ref) build(ctx context.Context) (*Evaluator, error) {
	carved, err := r.compile(ctx, r.key)
	if err != nil {
		return nil, err
	}
	e, err := Link(r.key, carved, r.reg)
	if err != nil {
		return nil, err
	}
	e.owner = r
	return e, nil
}

// Recompile rebuilds the evaluator of a compiled or failed ref. A result
// whose graph is identical to the current one is dropped. swapped reports
// whether the observable evaluator changed. An uncompiled ref stays
// untouched until it is first used.
func (r *Ref) Recompile(ctx context.Context) (swapped bool, err error) {
	r.recompiling.Lock()
	defer r.recompiling.Unlock()
	if r.State() == Uncompiled {
		return false, nil
	}
	logger := ctxlog.FromContext(ctx).With("evaluator", r.key.String())

	e, err := r.build(ctx)
	if err != nil && ctx.Err() != nil {
		return false, err
	}

	r.mu.Lock()
	old := r.current
	if err != nil {
		r.state, r.current, r.err = Failed, nil, err
		r.mu.Unlock()
		r.metrics.Recompiled(metrics.OutcomeFailed)
		logger.Warn("Recompile failed.", "error", err)
		if old == nil {
			return false, nil
		}
		r.dep.Invalidate()
		return true, nil
	}
	if old != nil && old.snapshot.Equal(e.snapshot) {
		r.mu.Unlock()
		r.metrics.Recompiled(metrics.OutcomeDebounced)
		logger.Debug("Recompile produced an identical graph.")
		return false, nil
	}
	r.state, r.current, r.err = Compiled, e, nil
	r.mu.Unlock()
	r.metrics.Recompiled(metrics.OutcomeSwapped)
	logger.Debug("Swapped evaluator.", "nodes", e.Len())
	r.dep.Invalidate()
	return true, nil
}

// Evaluate computes the ref's value in sc. The query records a dependency
// on the ref so consumers learn about swaps.
func (r *Ref) Evaluate(ctx context.Context, sc Scope, q *query.Query) (cty.Value, error) {
	q.Tracker().Add(r.dep)
	e, err := r.Get(ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return e.Evaluate(ctx, sc, q)
}
