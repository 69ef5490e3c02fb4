// Package spatial provides nodes that read the sample position of the
// current query.
package spatial

import (
	"context"

	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

const (
	TypeGetPosition = "GetPosition"

	pinPosition = "Position"
)

var GetPositionSpec = node.Define(TypeGetPosition).
	Category("Spatial").
	Describe("The position the graph is being sampled at.").
	Output(pinPosition, pintype.Vector).
	Build()

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the spatial node types.
func (m *Module) Register(r *registry.Registry) {
	r.Register(GetPositionSpec, map[string]node.ComputeFunc{pinPosition: computePosition})
}

func computePosition(ctx context.Context, call node.Call) (cty.Value, error) {
	v, ok := call.QueryParameter(query.ParamPosition)
	if !ok {
		call.Report(ctx, diag.Warningf(call.Ref(), pinPosition, "query has no %q parameter", query.ParamPosition))
		return pintype.Vector.Zero(), nil
	}
	return pintype.Vector.Convert(v)
}
