package evaluator

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/hcl_adapter"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/scheduler"
	"github.com/specialistvlad/voxelflow/modules/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const fixture = `
asset "test" {
  parameter "height" {
    type    = float
    default = 10
  }

  terminal "main" {
    output "a" { type = float }
    output "b" { type = float }
    output "c" { type = float }

    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Sqrt" "root" {
      Value = node.p.Value
    }
    node "Output" "out_a" {
      properties = { output = "a" }
      Value      = node.root.Result
    }
    node "Fail" "broken" {
      In = 1
    }
    node "Output" "out_b" {
      properties = { output = "b" }
      Value      = node.broken.Out
    }
    node "Slow" "wait" {
      In = 7
    }
    node "Output" "out_c" {
      properties = { output = "c" }
      Value      = node.wait.Out
    }
  }
}
`

var errBoom = errors.New("boom")

type failModule struct{}

func (failModule) Register(r *registry.Registry) {
	spec := node.Define("Fail").
		Input("In", pintype.Float).
		Output("Out", pintype.Float).
		Build()
	r.Register(spec, map[string]node.ComputeFunc{
		"Out": func(context.Context, node.Call) (cty.Value, error) { return cty.NilVal, errBoom },
	})
}

// slowModule registers a node that takes a while and gives up when its
// context is cancelled.
type slowModule struct {
	started atomic.Int32
}

func (m *slowModule) Register(r *registry.Registry) {
	spec := node.Define("Slow").
		Input("In", pintype.Float).
		Output("Out", pintype.Float).
		Build()
	r.Register(spec, map[string]node.ComputeFunc{
		"Out": func(ctx context.Context, call node.Call) (cty.Value, error) {
			m.started.Add(1)
			select {
			case <-time.After(200 * time.Millisecond):
				return call.Input(ctx, "In")
			case <-ctx.Done():
				return cty.NilVal, ctx.Err()
			}
		},
	})
}

type testScope struct {
	cache     *query.Cache
	pool      *scheduler.Pool
	sink      *diag.Collector
	params    map[uuid.UUID]cty.Value
	reads     atomic.Int32
	destroyed atomic.Bool
}

func newScope() *testScope {
	return &testScope{
		cache:  query.NewCache(nil),
		pool:   scheduler.NewPool(4, nil),
		sink:   &diag.Collector{},
		params: make(map[uuid.UUID]cty.Value),
	}
}

func (s *testScope) Address() *nodeid.Address { return nil }
func (s *testScope) Cache() *query.Cache      { return s.cache }
func (s *testScope) Pool() *scheduler.Pool    { return s.pool }
func (s *testScope) Sink() diag.Sink          { return s.sink }
func (s *testScope) Destroyed() bool          { return s.destroyed.Load() }

func (s *testScope) GraphInput(context.Context, *query.Query, uuid.UUID) (cty.Value, bool, error) {
	return cty.NilVal, false, nil
}

func (s *testScope) Parameter(_ context.Context, _ *query.Query, guid uuid.UUID) (cty.Value, error) {
	s.reads.Add(1)
	if v, ok := s.params[guid]; ok {
		return v, nil
	}
	return cty.NumberFloatVal(0), nil
}

func (s *testScope) CallFunction(context.Context, *query.Query, CallSite, uuid.UUID, uuid.UUID) (cty.Value, error) {
	return cty.NilVal, errors.New("not supported")
}

func (s *testScope) CallGraph(context.Context, *query.Query, CallSite, string, uuid.UUID) (cty.Value, error) {
	return cty.NilVal, errors.New("not supported")
}

type harness struct {
	reg     *registry.Registry
	lib     *model.Library
	comp    *compiler.Compiler
	scope   *testScope
	slow    *slowModule
	a, b, c uuid.UUID
	runs    atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lib, err := hcl_adapter.NewLoader().LoadSource(context.Background(), []byte(fixture), "test.hcl")
	require.NoError(t, err)
	slow := &slowModule{}
	reg := registry.New(&corenodes.Module{}, &math.Module{}, failModule{}, slow)
	h := &harness{reg: reg, lib: lib, comp: compiler.New(reg, lib), scope: newScope(), slow: slow}

	asset, _ := lib.Asset("test")
	h.scope.params[model.GuidFor("parameter", "height")] = cty.NumberFloatVal(16)
	main, _ := asset.Terminal("main")
	a, _ := main.Output("a")
	b, _ := main.Output("b")
	c, _ := main.Output("c")
	h.a, h.b, h.c = a.Guid, b.Guid, c.Guid
	return h
}

func (h *harness) compile(ctx context.Context, key Key) (*compiler.Carved, error) {
	h.runs.Add(1)
	l, err := h.comp.Lower(ctx, key.Asset, "main")
	if err != nil {
		return nil, err
	}
	return compiler.Carve(l, key.Output)
}

func (h *harness) ref(output uuid.UUID) *Ref {
	return NewRef(Key{Asset: "test", Output: output}, h.reg, h.compile, nil)
}

func TestEvaluate_ComputesOncePerQuery(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.a)
	ctx := context.Background()

	v, err := r.Evaluate(ctx, h.scope, query.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 4.0, pintype.AsFloat(v))

	q := query.New(nil)
	v, err = r.Evaluate(ctx, h.scope, q)
	require.NoError(t, err)
	assert.Equal(t, 4.0, pintype.AsFloat(v))
	assert.Equal(t, int32(1), h.scope.reads.Load(), "second query is served from the cache")
	assert.Contains(t, q.Tracker().Deps(), r.Dependency())

	_, err = r.Evaluate(ctx, h.scope, query.New(map[string]cty.Value{query.ParamPosition: pintype.VectorVal(1, 2, 3)}))
	require.NoError(t, err)
	assert.Equal(t, int32(2), h.scope.reads.Load(), "other parameters have their own entries")
}

func TestEvaluate_ComputeErrorDegradesToZero(t *testing.T) {
	h := newHarness(t)
	v, err := h.ref(h.b).Evaluate(context.Background(), h.scope, query.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pintype.AsFloat(v))

	errs := h.scope.sink.Diagnostics().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "test.main.broken:Out", errs[0].Location())
	assert.Contains(t, errs[0].Summary, "boom")
}

func TestEvaluate_DestroyedScope(t *testing.T) {
	h := newHarness(t)
	h.scope.destroyed.Store(true)
	_, err := h.ref(h.a).Evaluate(context.Background(), h.scope, query.New(nil))
	assert.ErrorIs(t, err, ErrRuntimeDestroyed)
	assert.Equal(t, 0, h.scope.cache.Len())
}

func TestEvaluate_CancelledContext(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.a)
	_, err := r.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Evaluate(ctx, h.scope, query.New(nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.scope.sink.Diagnostics())
}

func TestEvaluate_WaiterOutlivesCancelledOwner(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.c)
	_, err := r.Get(context.Background())
	require.NoError(t, err)

	ownerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ownerErr := make(chan error, 1)
	go func() {
		_, err := r.Evaluate(ownerCtx, h.scope, query.New(nil))
		ownerErr <- err
	}()
	require.Eventually(t, func() bool { return h.slow.started.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		v   cty.Value
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		v, err := r.Evaluate(context.Background(), h.scope, query.New(nil))
		waiter <- result{v, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-ownerErr, context.Canceled)
	res := <-waiter
	require.NoError(t, res.err, "a live request must not inherit another request's cancellation")
	assert.Equal(t, 7.0, pintype.AsFloat(res.v))
	assert.Equal(t, int32(2), h.slow.started.Load(), "the waiter recomputes the abandoned value")
	assert.Empty(t, h.scope.sink.Diagnostics())
}

func TestLink(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.a)
	e, err := r.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, e.Len())
	id, pin := e.Root()
	assert.Equal(t, "out_a", id)
	assert.Equal(t, corenodes.PinValue, pin)
	assert.True(t, e.HasNode("root"))
	assert.False(t, e.HasNode("broken"))
}

func TestRef_CompilesLazilyOnce(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.a)
	assert.Equal(t, Uncompiled, r.State())

	swapped, err := r.Recompile(context.Background())
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, Uncompiled, r.State(), "recompile leaves unused refs alone")

	e1, err := r.Get(context.Background())
	require.NoError(t, err)
	e2, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, e1, e2)
	assert.Equal(t, Compiled, r.State())
	assert.Equal(t, int32(1), h.runs.Load())
}

func TestRef_RecompileSwapsOnlyOnStructuralChange(t *testing.T) {
	h := newHarness(t)
	r := h.ref(h.a)
	ctx := context.Background()
	_, err := r.Evaluate(ctx, h.scope, query.New(nil))
	require.NoError(t, err)
	before, _ := r.Get(ctx)
	version := r.Dependency().Version()
	require.NotZero(t, h.scope.cache.Len())

	asset, _ := h.lib.Asset("test")
	require.NoError(t, asset.SetPin("main", "broken", "In", model.Literal(cty.NumberIntVal(2))))
	swapped, err := r.Recompile(ctx)
	require.NoError(t, err)
	assert.False(t, swapped, "editing another output's graph is debounced")
	after, _ := r.Get(ctx)
	assert.Same(t, before, after)
	assert.Equal(t, version, r.Dependency().Version())

	require.NoError(t, asset.SetPin("main", "root", "Value", model.Literal(cty.NumberIntVal(81))))
	swapped, err = r.Recompile(ctx)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Greater(t, r.Dependency().Version(), version)
	assert.Equal(t, 0, h.scope.cache.Len(), "values computed by the old evaluator are dropped")

	v, err := r.Evaluate(ctx, h.scope, query.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 9.0, pintype.AsFloat(v))
}

func TestRef_FailedCompile(t *testing.T) {
	h := newHarness(t)
	r := NewRef(Key{Asset: "test", Output: model.GuidFor("missing")}, h.reg, h.compile, nil)

	_, err := r.Get(context.Background())
	require.ErrorIs(t, err, ErrNotCompiled)
	assert.ErrorIs(t, err, compiler.ErrOutputNotBound)
	assert.Equal(t, Failed, r.State())

	_, err = r.Evaluate(context.Background(), h.scope, query.New(nil))
	assert.ErrorIs(t, err, ErrNotCompiled)
}

func TestTable(t *testing.T) {
	h := newHarness(t)
	table := NewTable(nil)
	ka := Key{Asset: "test", Output: h.a}
	kb := Key{Asset: "test", Output: h.b}

	ra := table.Get(ka, func() *Ref { return h.ref(h.a) })
	assert.Same(t, ra, table.Get(ka, func() *Ref { panic("must reuse the live ref") }))
	rb := table.Get(kb, func() *Ref { return h.ref(h.b) })
	assert.Equal(t, 2, table.Len())

	ctx := context.Background()
	_, err := ra.Get(ctx)
	require.NoError(t, err)
	asset, _ := h.lib.Asset("test")
	require.NoError(t, asset.SetPin("main", "root", "Value", model.Literal(cty.NumberIntVal(1))))

	swapped, err := table.RecompileWhere(ctx, func(k Key) bool { return k.Asset == "test" })
	require.NoError(t, err)
	assert.Equal(t, 1, swapped, "only the compiled ref swaps")
	runtime.KeepAlive(rb)
}

func TestTable_ForgetsCollectedRefs(t *testing.T) {
	h := newHarness(t)
	table := NewTable(nil)
	func() {
		table.Get(Key{Asset: "test", Output: h.a}, func() *Ref { return h.ref(h.a) })
	}()
	require.Eventually(t, func() bool {
		runtime.GC()
		return table.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
