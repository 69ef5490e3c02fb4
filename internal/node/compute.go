package node

import (
	"context"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// ComputeFunc produces the value of one output pin.
type ComputeFunc func(ctx context.Context, call Call) (cty.Value, error)

// Call is the view a compute function has of the node being evaluated. It
// is implemented by the evaluator.
type Call interface {
	// Node is the compiled operation instance.
	Node() *Node
	// Ref is the call-path-qualified address of the node.
	Ref() *nodeid.Address
	// Output is the name of the output pin being computed.
	Output() string
	// PinType returns the resolved type of a pin.
	PinType(pin string) pintype.Type

	// Input evaluates an input pin: the linked upstream value, or the
	// pin's default.
	Input(ctx context.Context, pin string) (cty.Value, error)
	// Variadic evaluates every element of a variadic input group in order.
	Variadic(ctx context.Context, group string) ([]cty.Value, error)
	// IsLinked reports whether an input pin is fed by another node.
	IsLinked(pin string) bool

	// QueryParameter reads a free-form parameter of the current query,
	// such as the sample position.
	QueryParameter(name string) (cty.Value, bool)

	// GraphInput resolves a declared input through the caller's bindings.
	// bound is false when no caller provides the input.
	GraphInput(ctx context.Context, input uuid.UUID) (v cty.Value, bound bool, err error)
	// Parameter reads a declared parameter of the instanced graph.
	Parameter(ctx context.Context, parameter uuid.UUID) (cty.Value, error)
	// CallFunction evaluates an output of a function terminal of the same
	// asset, with this node's input pins as the function's inputs.
	CallFunction(ctx context.Context, terminal, output uuid.UUID) (cty.Value, error)
	// CallGraph evaluates an output of another asset's main terminal.
	CallGraph(ctx context.Context, asset string, output uuid.UUID) (cty.Value, error)

	// Report sends a runtime diagnostic anchored on this node.
	Report(ctx context.Context, d diag.Diagnostic)
}
