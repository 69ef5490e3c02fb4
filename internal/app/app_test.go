package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const terrainHCL = `
asset "terrain" {
  parameter "height" {
    type    = float
    default = 16
  }

  terminal "main" {
    output "root" { type = float }
    output "scaled" { type = float }
    output "z" { type = float }

    node "Parameter" "h" {
      properties = { parameter = "height" }
    }
    node "Sqrt" "s" {
      Value = node.h.Value
    }
    node "Expression" "e" {
      properties = { expression = "values[0] * 10.0" }
      variadic   = { Values = 1 }
      Values_0   = node.s.Result
    }
    node "GetPosition" "pos" {}
    node "Output" "root" {
      properties = { output = "root" }
      Value      = node.s.Result
    }
    node "Output" "scaled" {
      properties = { output = "scaled" }
      Value      = node.e.Result
    }
    node "Output" "z" {
      properties = { output = "z" }
      Value      = node.pos.Position.Z
    }
  }
}
`

const loopYAML = `
assets:
  - name: loop
    terminals:
      - name: main
        outputs:
          - name: o
            type: float
        nodes:
          - name: a
            type: Add
            pins:
              Values_0: {link: node.b.Result}
              Values_1: 1
          - name: b
            type: Add
            pins:
              Values_0: {link: node.a.Result}
              Values_1: 1
          - name: out
            type: Output
            properties: {output: o}
            pins:
              Value: {link: node.a.Result}
`

func floats(res app.EvalResult) map[string]float64 {
	out := make(map[string]float64, len(res))
	for k, v := range res {
		out[k] = pintype.AsFloat(v)
	}
	return out
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     app.Config
		wantErr []string
	}{
		{name: "defaults", cfg: app.Config{GraphPath: "g"}},
		{name: "missing path", cfg: app.Config{}, wantErr: []string{"GraphPath is a required"}},
		{
			name:    "bad enums",
			cfg:     app.Config{GraphPath: "g", Format: "xml", LogLevel: "loud"},
			wantErr: []string{`invalid format "xml"`, `invalid log-level "loud"`},
		},
		{name: "metrics without server", cfg: app.Config{GraphPath: "g", MetricsEnabled: true}, wantErr: []string{"healthcheck port"}},
		{name: "negative workers", cfg: app.Config{GraphPath: "g", Workers: -1}, wantErr: []string{"workers must not be negative"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := app.NewConfig(tc.cfg)
			if len(tc.wantErr) == 0 {
				require.NoError(t, err)
				assert.Equal(t, "auto", cfg.Format)
				assert.Equal(t, "auto", cfg.LogFormat)
				assert.Equal(t, "info", cfg.LogLevel)
				return
			}
			for _, want := range tc.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestApp_Eval(t *testing.T) {
	res := testutil.LoadApp(t, map[string]string{"terrain.hcl": terrainHCL}, nil)
	require.NoError(t, res.Err)
	ctx := context.Background()

	out, err := res.App.Eval(ctx, app.EvalRequest{Asset: "terrain", Position: &[3]float64{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"root": 4, "scaled": 40, "z": 3}, floats(out))

	out, err = res.App.Eval(ctx, app.EvalRequest{
		Asset:      "terrain",
		Outputs:    []string{"scaled"},
		Parameters: map[string]cty.Value{"height": cty.NumberIntVal(81)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"scaled": 90}, floats(out))

	_, err = res.App.Eval(ctx, app.EvalRequest{Asset: "terrain", Parameters: map[string]cty.Value{"width": cty.NumberIntVal(1)}})
	assert.ErrorContains(t, err, `no parameter "width"`)
	_, err = res.App.Eval(ctx, app.EvalRequest{Asset: "missing"})
	assert.ErrorContains(t, err, "not loaded")
}

func TestApp_EvalPreview(t *testing.T) {
	res := testutil.LoadApp(t, map[string]string{"terrain.hcl": terrainHCL}, nil)
	require.NoError(t, res.Err)

	preview, err := compiler.ParsePinAddress("terrain.main.h:Value")
	require.NoError(t, err)
	out, err := res.App.Eval(context.Background(), app.EvalRequest{
		Asset:   "terrain",
		Outputs: []string{"root"},
		Preview: &preview,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for k, v := range floats(out) {
		if k != "root" {
			assert.Contains(t, k, "preview:")
			assert.Equal(t, 16.0, v)
		}
	}

	other, err := compiler.ParsePinAddress("elsewhere.main.h:Value")
	require.NoError(t, err)
	_, err = res.App.Eval(context.Background(), app.EvalRequest{Asset: "terrain", Preview: &other})
	assert.ErrorContains(t, err, "is not in the main terminal")
}

func TestApp_SharedNodesComputeOnce(t *testing.T) {
	const graph = `
asset "shared" {
  terminal "main" {
    output "a" { type = float }
    output "b" { type = float }

    node "Probe" "p" {
      In = 3
    }
    node "Output" "a" {
      properties = { output = "a" }
      Value      = node.p.Out
    }
    node "Output" "b" {
      properties = { output = "b" }
      Value      = node.p.Out
    }
  }
}
`
	probe := &testutil.ProbeModule{Delay: 10 * time.Millisecond}
	res := testutil.LoadApp(t, map[string]string{"shared.hcl": graph}, nil, append(app.CoreModules(), probe)...)
	require.NoError(t, res.Err)

	out, err := res.App.Eval(context.Background(), app.EvalRequest{Asset: "shared"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 3, "b": 3}, floats(out))
	assert.Equal(t, 1, probe.Calls())
}

func TestApp_Compile(t *testing.T) {
	files := map[string]string{"terrain.hcl": terrainHCL, "loop.yaml": loopYAML}

	t.Run("reports every failing terminal", func(t *testing.T) {
		res := testutil.LoadApp(t, files, nil)
		require.NoError(t, res.Err)
		require.NoError(t, res.App.Compile(context.Background(), "terrain", compiler.Options{}))

		err := res.App.Compile(context.Background(), "", compiler.Options{})
		require.ErrorIs(t, err, compiler.ErrCompilationFailed)
		assert.ErrorContains(t, err, "loop.main")

		errs := res.App.Diagnostics().Errors()
		assert.NotEmpty(t, errs)
		assert.Contains(t, res.LogOutput.String(), "Compilation finished.")
	})

	t.Run("cook downgrades errors", func(t *testing.T) {
		res := testutil.LoadApp(t, files, func(c *app.Config) { c.Cook = true })
		require.NoError(t, res.Err)
		assert.Error(t, res.App.Compile(context.Background(), "loop", compiler.Options{}))
		assert.Empty(t, res.App.Diagnostics().Errors())
		assert.NotEmpty(t, res.App.Diagnostics())
		for _, d := range res.App.Diagnostics() {
			assert.NotEqual(t, diag.Error, d.Severity)
		}
	})

	t.Run("format restricts the loaded files", func(t *testing.T) {
		res := testutil.LoadApp(t, files, func(c *app.Config) { c.Format = "hcl" })
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"terrain"}, res.App.Library().Names())
	})
}

func TestApp_Dump(t *testing.T) {
	res := testutil.LoadApp(t, map[string]string{"terrain.hcl": terrainHCL}, nil)
	require.NoError(t, res.Err)

	out, err := res.App.Dump(context.Background(), "terrain", "", "")
	require.NoError(t, err)
	assert.Contains(t, string(out), `node "Sqrt" "s"`)

	_, err = res.App.Dump(context.Background(), "terrain", "main", "Nope")
	assert.ErrorContains(t, err, `unknown pass "Nope"`)
}

func TestApp_LoadMissingPath(t *testing.T) {
	res := testutil.LoadApp(t, map[string]string{}, func(c *app.Config) { c.GraphPath = "/nowhere" })
	assert.ErrorContains(t, res.Err, "does not exist")
}
