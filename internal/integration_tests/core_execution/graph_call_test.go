package integration_tests

import (
	"context"
	"testing"

	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Test for: a graph call instantiates the callee with its own parameters,
// and a function call runs in the caller's scope.
func TestCoreExecution_GraphAndFunctionCalls(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"rock.hcl": `
asset "rock" {
  parameter "size" {
    type    = float
    default = 2
  }
  terminal "main" {
    output "volume" { type = float }

    node "Parameter" "size" {
      properties = { parameter = "size" }
    }
    node "CallFunction" "cube" {
      properties = { function = "cube" }
      x          = node.size.Value
    }
    node "Output" "volume" {
      properties = { output = "volume" }
      Value      = node.cube.y
    }
  }
  function "cube" {
    input "x" { type = float }
    output "y" { type = float }

    node "Input" "x" {
      properties = { input = "x" }
    }
    node "Multiply" "m" {
      variadic = { Values = 3 }
      Values_0 = node.x.Value
      Values_1 = node.x.Value
      Values_2 = node.x.Value
    }
    node "Output" "y" {
      properties = { output = "y" }
      Value      = node.m.Result
    }
  }
}
`,
		"field.hcl": `
asset "field" {
  terminal "main" {
    output "total" { type = float }

    node "CallGraph" "rock" {
      properties = { graph = "rock" }
    }
    node "Add" "total" {
      Values_0 = node.rock.volume
      Values_1 = 1
    }
    node "Output" "total" {
      properties = { output = "total" }
      Value      = node.total.Result
    }
  }
}
`,
	}
	res := testutil.LoadApp(t, files, nil)
	require.NoError(t, res.Err)
	ctx := context.Background()

	// --- Act & Assert ---
	out, err := res.App.Eval(ctx, app.EvalRequest{Asset: "rock"})
	require.NoError(t, err)
	assert.Equal(t, 8.0, pintype.AsFloat(out["volume"]))

	out, err = res.App.Eval(ctx, app.EvalRequest{Asset: "rock", Parameters: map[string]cty.Value{"size": cty.NumberIntVal(3)}})
	require.NoError(t, err)
	assert.Equal(t, 27.0, pintype.AsFloat(out["volume"]))

	out, err = res.App.Eval(ctx, app.EvalRequest{Asset: "field"})
	require.NoError(t, err)
	assert.Equal(t, 9.0, pintype.AsFloat(out["total"]))
}
