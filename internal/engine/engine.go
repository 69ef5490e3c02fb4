package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/evaluator"
	"github.com/specialistvlad/voxelflow/internal/instance"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine is closed")

// Defaults used when Options leaves a field at zero.
const (
	DefaultWorkers           = 8
	DefaultMaxRecursionDepth = 64
	closePollInterval        = 10 * time.Millisecond
)

// Options configure an Engine.
type Options struct {
	Workers           int
	MaxRecursionDepth int
	Compiler          compiler.Options
	// Sink receives compile and runtime diagnostics. Nil discards them.
	Sink    diag.Sink
	Metrics *metrics.Metrics
}

type rootKey struct {
	asset    string
	terminal uuid.UUID
}

// Engine evaluates the terminal graphs of a library.
type Engine struct {
	reg      *registry.Registry
	lib      *model.Library
	comp     *compiler.Compiler
	refs     *evaluator.Table
	pool     *scheduler.Pool
	serial   *scheduler.Serial
	sink     diag.Sink
	metrics  *metrics.Metrics
	maxDepth int
	params   *parameterStore

	closed atomic.Bool

	mu        sync.Mutex
	roots     map[rootKey]*instance.Instance
	assetDeps map[string]*query.Dependency
}

var _ instance.Host = (*Engine)(nil)

// New creates an engine over lib. Call Close when done.
func New(reg *registry.Registry, lib *model.Library, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxRecursionDepth <= 0 {
		opts.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.Discard
	}
	sink = countingSink{next: sink, metrics: opts.Metrics}
	return &Engine{
		reg: reg,
		lib: lib,
		comp: compiler.New(reg, lib,
			compiler.WithOptions(opts.Compiler),
			compiler.WithSink(sink),
			compiler.WithMetrics(opts.Metrics),
		),
		refs:      evaluator.NewTable(opts.Metrics),
		pool:      scheduler.NewPool(opts.Workers, opts.Metrics),
		serial:    scheduler.NewSerial(),
		sink:      sink,
		metrics:   opts.Metrics,
		maxDepth:  opts.MaxRecursionDepth,
		params:    newParameterStore(),
		roots:     make(map[rootKey]*instance.Instance),
		assetDeps: make(map[string]*query.Dependency),
	}
}

func (e *Engine) Library() *model.Library      { return e.lib }
func (e *Engine) Registry() *registry.Registry { return e.reg }
func (e *Engine) Compiler() *compiler.Compiler { return e.comp }
func (e *Engine) Refs() *evaluator.Table       { return e.refs }
func (e *Engine) Pool() *scheduler.Pool        { return e.pool }
func (e *Engine) Sink() diag.Sink              { return e.sink }
func (e *Engine) Metrics() *metrics.Metrics    { return e.metrics }
func (e *Engine) MaxDepth() int                { return e.maxDepth }

// StoredParameter implements instance.Host.
func (e *Engine) StoredParameter(path string, guid uuid.UUID) (cty.Value, bool, *query.Dependency) {
	return e.params.get(path, guid)
}

// AssetDependency implements instance.Host.
func (e *Engine) AssetDependency(asset string) *query.Dependency {
	e.mu.Lock()
	defer e.mu.Unlock()
	dep, ok := e.assetDeps[asset]
	if !ok {
		dep = query.NewDependency("asset " + asset)
		e.assetDeps[asset] = dep
	}
	return dep
}

// Root returns the instance of an asset's main terminal, creating it on
// first use.
func (e *Engine) Root(asset string) (*instance.Instance, error) {
	a, ok := e.lib.Asset(asset)
	if !ok {
		return nil, fmt.Errorf("asset %q is not loaded", asset)
	}
	main, ok := a.MainTerminal()
	if !ok {
		return nil, fmt.Errorf("asset %q has no main terminal", asset)
	}
	key := rootKey{asset: asset, terminal: main.Guid}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.roots[key]; ok {
		return r, nil
	}
	r := instance.NewRoot(e, asset, main.Guid, nil)
	e.roots[key] = r
	return r, nil
}

// Evaluate computes a declared output of an asset's main terminal for one
// set of query parameters.
func (e *Engine) Evaluate(ctx context.Context, asset, output string, params map[string]cty.Value) (cty.Value, error) {
	if e.closed.Load() {
		return cty.NilVal, ErrClosed
	}
	done := e.pool.Track()
	defer done()

	root, err := e.Root(asset)
	if err != nil {
		return cty.NilVal, err
	}
	a, _ := e.lib.Asset(asset)
	main, _ := a.MainTerminal()
	d, ok := main.Output(output)
	if !ok {
		return cty.NilVal, fmt.Errorf("asset %q has no output %q", asset, output)
	}
	ctxlog.FromContext(ctx).Debug("Evaluating output.", "asset", asset, "output", output)
	return root.Evaluate(ctx, query.New(params), d.Guid)
}

// EvaluateNode computes a queryable node of an asset's main terminal, such
// as the preview grafted by compiler.Options.PreviewPin.
func (e *Engine) EvaluateNode(ctx context.Context, asset, id string, params map[string]cty.Value) (cty.Value, error) {
	if e.closed.Load() {
		return cty.NilVal, ErrClosed
	}
	done := e.pool.Track()
	defer done()

	root, err := e.Root(asset)
	if err != nil {
		return cty.NilVal, err
	}
	return root.CreateNodeEvaluatorRef(id).Evaluate(ctx, root, query.New(params))
}

// Previews lists the preview nodes of an asset's lowered main terminal.
func (e *Engine) Previews(ctx context.Context, asset string) ([]string, error) {
	a, ok := e.lib.Asset(asset)
	if !ok {
		return nil, fmt.Errorf("asset %q is not loaded", asset)
	}
	main, ok := a.MainTerminal()
	if !ok {
		return nil, fmt.Errorf("asset %q has no main terminal", asset)
	}
	l, err := e.comp.Lower(ctx, asset, main.Name)
	if err != nil {
		return nil, err
	}
	return compiler.Previews(l), nil
}

// Close stops accepting work, tears the instance trees down and waits for
// running evaluations to return.
func (e *Engine) Close(ctx context.Context, timeout time.Duration) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	e.mu.Lock()
	for _, r := range e.roots {
		r.Destroy()
	}
	clear(e.roots)
	e.mu.Unlock()

	err := wait.PollUntilContextTimeout(ctx, closePollInterval, timeout, true, func(context.Context) (bool, error) {
		return e.pool.Active() == 0, nil
	})
	e.serial.Close()
	if err != nil {
		logger.Warn("Engine closed with evaluations still running.", "active", e.pool.Active(), "error", err)
		return fmt.Errorf("waiting for %d evaluations: %w", e.pool.Active(), err)
	}
	logger.Debug("Engine closed.")
	return nil
}

// countingSink forwards diagnostics and counts them by severity.
type countingSink struct {
	next    diag.Sink
	metrics *metrics.Metrics
}

func (s countingSink) Report(ctx context.Context, d diag.Diagnostic) {
	s.metrics.Reported(d.Severity.String())
	s.next.Report(ctx, d)
}
