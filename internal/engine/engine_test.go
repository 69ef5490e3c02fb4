package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/hcl_adapter"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/modules/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const library = `
asset "box" {
  parameter "height" {
    type    = float
    default = 16
  }

  terminal "main" {
    output "o" { type = float }

    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Sqrt" "root" {
      Value = node.p.Value
    }
    node "Output" "out" {
      properties = { output = "o" }
      Value      = node.root.Result
    }
  }
}

asset "derived" {
  base = "box"

  terminal "main" {
    output "o" { type = float }

    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Output" "out" {
      properties = { output = "o" }
      Value      = node.p.Value
    }
  }
}

asset "caller" {
  terminal "main" {
    output "o" { type = float }

    node "CallGraph" "box" {
      properties = { graph = "box" }
    }
    node "Output" "out" {
      properties = { output = "o" }
      Value      = node.box.o
    }
  }
}

asset "cuber" {
  terminal "main" {
    output "o" { type = float }

    node "CallFunction" "call" {
      properties = { function = "cube" }
      x          = 2
    }
    node "Output" "out" {
      properties = { output = "o" }
      Value      = node.call.y
    }
  }

  function "cube" {
    input "x" {
      type    = float
      default = 1
    }
    output "y" { type = float }

    node "Input" "x" {
      properties = { input = "x" }
    }
    node "Multiply" "m" {
      Values_0 = node.x.Value
      Values_1 = node.x.Value
    }
    node "Output" "out" {
      properties = { output = "y" }
      Value      = node.m.Result
    }
  }
}

asset "loop" {
  terminal "main" {
    output "o" { type = float }

    node "CallGraph" "again" {
      properties = { graph = "loop" }
    }
    node "Output" "out" {
      properties = { output = "o" }
      Value      = node.again.o
    }
  }
}
`

type fixture struct {
	engine *Engine
	lib    *model.Library
	sink   *diag.Collector
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	lib, err := hcl_adapter.NewLoader().LoadSource(context.Background(), []byte(library), "test.hcl")
	require.NoError(t, err)
	reg := registry.New(&corenodes.Module{}, &math.Module{})
	sink := &diag.Collector{}
	opts.Sink = sink
	e := New(reg, lib, opts)
	t.Cleanup(func() { _ = e.Close(context.Background(), time.Second) })
	return &fixture{engine: e, lib: lib, sink: sink}
}

func (f *fixture) eval(t *testing.T, asset string) float64 {
	t.Helper()
	v, err := f.engine.Evaluate(context.Background(), asset, "o", nil)
	require.NoError(t, err)
	return pintype.AsFloat(v)
}

func TestEngine_Evaluate(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, 4.0, f.eval(t, "box"))
	assert.Equal(t, 16.0, f.eval(t, "derived"), "defaults are inherited from the base")
	assert.Equal(t, 4.0, f.eval(t, "caller"))

	_, err := f.engine.Evaluate(context.Background(), "box", "missing", nil)
	assert.ErrorContains(t, err, `no output "missing"`)
	_, err = f.engine.Evaluate(context.Background(), "nope", "o", nil)
	assert.ErrorContains(t, err, "not loaded")
}

func TestEngine_LogLinesNameTheAssetOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	f := newFixture(t, Options{})

	_, err := f.engine.Evaluate(ctx, "caller", "o", nil)
	require.NoError(t, err)

	var compiled []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, strings.Count(line, " asset="), 1, line)
		if strings.Contains(line, "Compiled terminal graph.") {
			compiled = append(compiled, line)
		}
	}
	require.Len(t, compiled, 2)
	assert.Contains(t, strings.Join(compiled, "\n"), "asset=box terminal=main")
}

func TestEngine_ConcurrentEvaluate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, Options{Workers: 2, Metrics: m})

	var wg sync.WaitGroup
	results := make([]float64, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.engine.Evaluate(context.Background(), "caller", "o", nil)
			errs[i] = err
			if err == nil {
				results[i] = pintype.AsFloat(v)
			}
		}()
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 4.0, results[i])
	}
	assert.Equal(t, 2, f.engine.Refs().Len(), "one ref per terminal output")
}

func TestEngine_SetParameter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	require.Equal(t, 4.0, f.eval(t, "box"))

	require.NoError(t, f.engine.SetParameter(ctx, "box", "height", cty.NumberIntVal(81)))
	assert.Equal(t, 9.0, f.eval(t, "box"))
	assert.Equal(t, 4.0, f.eval(t, "caller"), "stored values are scoped to their path")

	require.NoError(t, f.engine.SetParameter(ctx, "box", "height", cty.NilVal))
	assert.Equal(t, 4.0, f.eval(t, "box"), "clearing restores the default")

	require.NoError(t, f.engine.SetParameter(ctx, "caller.main.box", "height", cty.NumberIntVal(36)))
	assert.Equal(t, 6.0, f.eval(t, "caller"), "called graphs are addressed by their call site")

	tests := []struct {
		name    string
		path    string
		param   string
		value   cty.Value
		wantErr string
	}{
		{"unknown parameter", "box", "width", cty.NumberIntVal(1), `no parameter "width"`},
		{"unknown path", "elsewhere.main.x", "height", cty.NumberIntVal(1), "no instance at parameter path"},
		{"invalid path", "a..b", "height", cty.NumberIntVal(1), "invalid parameter path"},
		{"partial frame", "caller.main", "height", cty.NumberIntVal(1), "asset.terminal.node"},
		{"wrong type", "box", "height", cty.StringVal("tall"), `parameter "height"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.engine.SetParameter(ctx, tc.path, tc.param, tc.value)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestEngine_NotifyTerminalGraphChanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	require.Equal(t, 4.0, f.eval(t, "box"))

	a, _ := f.lib.Asset("box")
	require.NoError(t, a.SetPin("main", "root", "Value", model.Literal(cty.NumberIntVal(49))))
	assert.Equal(t, 4.0, f.eval(t, "box"), "cached until notified")

	require.NoError(t, f.engine.NotifyTerminalGraphChanged(ctx, "box", "main"))
	assert.Equal(t, 7.0, f.eval(t, "box"))
	assert.Equal(t, 7.0, f.eval(t, "caller"), "callers see the new graph")

	assert.ErrorContains(t, f.engine.NotifyTerminalGraphChanged(ctx, "box", "other"), `no terminal "other"`)
}

func TestEngine_CallSiteLiteralChangeReachesFunction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	require.Equal(t, 4.0, f.eval(t, "cuber"))

	a, _ := f.lib.Asset("cuber")
	require.NoError(t, a.SetPin("main", "call", "x", model.Literal(cty.NumberIntVal(5))))
	require.NoError(t, f.engine.NotifyAssetChanged(ctx, "cuber"))
	assert.Equal(t, 25.0, f.eval(t, "cuber"), "the function reads the new literal")

	root, err := f.engine.Root("cuber")
	require.NoError(t, err)
	assert.Len(t, root.Children(), 1, "the call site keeps its instance")
}

func TestEngine_NotifyDeclarationChanged(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, 4.0, f.eval(t, "box"))

	a, _ := f.lib.Asset("box")
	require.NoError(t, a.SetParameterDefault("height", model.Literal(cty.NumberIntVal(25))))
	require.NoError(t, f.engine.NotifyDeclarationChanged(context.Background(), "box"))
	assert.Equal(t, 5.0, f.eval(t, "box"))
}

func TestEngine_NotifyBaseGraphChanged(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, 16.0, f.eval(t, "derived"))

	a, _ := f.lib.Asset("box")
	require.NoError(t, a.SetParameterDefault("height", model.Literal(cty.NumberIntVal(3))))
	require.NoError(t, f.engine.NotifyBaseGraphChanged(context.Background(), "box"))
	assert.Equal(t, 3.0, f.eval(t, "derived"))
}

func TestEngine_RecursionIsBounded(t *testing.T) {
	f := newFixture(t, Options{MaxRecursionDepth: 4})
	assert.Equal(t, 0.0, f.eval(t, "loop"))

	errs := f.sink.Diagnostics().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "again", errs[0].Node.Last())
}

func TestEngine_Close(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	require.Equal(t, 4.0, f.eval(t, "box"))

	require.NoError(t, f.engine.Close(ctx, time.Second))
	require.NoError(t, f.engine.Close(ctx, time.Second), "closing twice is a no-op")

	_, err := f.engine.Evaluate(ctx, "box", "o", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.engine.EvaluateNode(ctx, "box", "out", nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.engine.NotifyAssetChanged(ctx, "box"), ErrClosed)
}
