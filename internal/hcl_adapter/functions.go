package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// evalContext is available to literal pin values and declaration defaults.
var evalContext = &hcl.EvalContext{
	Functions: map[string]function.Function{
		"vector": function.New(&function.Spec{
			Params: []function.Parameter{
				{Name: "x", Type: cty.Number},
				{Name: "y", Type: cty.Number},
				{Name: "z", Type: cty.Number},
			},
			Type: function.StaticReturnType(pintype.Vector.CtyType()),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.ObjectVal(map[string]cty.Value{"x": args[0], "y": args[1], "z": args[2]}), nil
			},
		}),
		"vector2d": function.New(&function.Spec{
			Params: []function.Parameter{
				{Name: "x", Type: cty.Number},
				{Name: "y", Type: cty.Number},
			},
			Type: function.StaticReturnType(pintype.Vector2D.CtyType()),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.ObjectVal(map[string]cty.Value{"x": args[0], "y": args[1]}), nil
			},
		}),
	},
}
