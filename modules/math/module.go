// Package math provides the arithmetic node library: constants, variadic
// sums and products, comparisons, a lazy Select, and the Lerp and Distance
// templates that the compiler expands in place.
//
// Every operation broadcasts over numbers, vectors and buffers of either.
package math

import (
	gomath "math"

	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the math node types.
func (m *Module) Register(r *registry.Registry) {
	r.Register(ConstantSpec, map[string]node.ComputeFunc{pinOut: computeConstant})
	r.Register(AddSpec, map[string]node.ComputeFunc{pinResult: fold(func(a, b float64) float64 { return a + b })})
	r.Register(MultiplySpec, map[string]node.ComputeFunc{pinResult: fold(func(a, b float64) float64 { return a * b })})
	r.Register(SubtractSpec, map[string]node.ComputeFunc{pinResult: binary(func(a, b float64) float64 { return a - b })})
	r.Register(DivideSpec, map[string]node.ComputeFunc{pinResult: binary(func(a, b float64) float64 { return a / b })})
	r.Register(MinSpec, map[string]node.ComputeFunc{pinResult: binary(gomath.Min)})
	r.Register(MaxSpec, map[string]node.ComputeFunc{pinResult: binary(gomath.Max)})
	r.Register(SqrtSpec, map[string]node.ComputeFunc{pinResult: unary(gomath.Sqrt)})
	r.Register(LengthSpec, map[string]node.ComputeFunc{pinResult: computeLength})
	r.Register(LessSpec, map[string]node.ComputeFunc{pinResult: comparison(func(a, b float64) bool { return a < b })})
	r.Register(LessEqualSpec, map[string]node.ComputeFunc{pinResult: comparison(func(a, b float64) bool { return a <= b })})
	r.Register(SelectSpec, map[string]node.ComputeFunc{pinResult: computeSelect})

	// Templates are expanded by the compiler and have no compute functions.
	r.RegisterNode(LerpSpec)
	r.RegisterNode(DistanceSpec)
}
