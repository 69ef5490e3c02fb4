package corenodes

import (
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every core node type.
func (m *Module) Register(r *registry.Registry) {
	r.Register(InputSpec, map[string]node.ComputeFunc{PinValue: computeInput})
	r.RegisterNode(OutputSpec)
	r.Register(ParameterSpec, map[string]node.ComputeFunc{PinValue: computeParameter})
	r.RegisterNode(LocalVariableDeclarationSpec)
	// Usages never survive compilation; reaching one at runtime is a bug.
	r.Register(LocalVariableUsageSpec, map[string]node.ComputeFunc{PinValue: errRemovedAtCompile})
	r.Register(PassthroughSpec, map[string]node.ComputeFunc{PinOutput: passthrough(PinInput)})
	r.Register(ToBufferSpec, map[string]node.ComputeFunc{PinBuffer: computeToBuffer})

	for _, spec := range []*node.Spec{MakeVectorSpec, MakeVector2DSpec} {
		r.Register(spec, map[string]node.ComputeFunc{PinValue: computeMake})
	}
	for _, spec := range []*node.Spec{BreakVectorSpec, BreakVector2DSpec} {
		r.RegisterNode(spec)
		for _, name := range spec.OutputNames() {
			r.RegisterCompute(spec.Type, name, computeBreak)
		}
	}

	r.Register(PreviewSpec, map[string]node.ComputeFunc{PinOut: passthrough(PinIn)})
	r.Register(DebugSpec, map[string]node.ComputeFunc{PinOut: computeDebug})
	r.Register(RangeSpec, map[string]node.ComputeFunc{PinOut: computeRange})
	r.Register(ZeroSpec, map[string]node.ComputeFunc{PinValue: computeZero})
	r.Register(CallFunctionSpec, map[string]node.ComputeFunc{registry.AnyOutput: computeCallFunction})
	r.Register(CallGraphSpec, map[string]node.ComputeFunc{registry.AnyOutput: computeCallGraph})
}
