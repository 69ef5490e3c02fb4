package corenodes

import (
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
)

var wildcard = pintype.Wildcard()

var (
	InputSpec = node.Define(TypeInput).
		Category("Graph").
		Describe("Reads a declared input of the graph or function. An optional Default pin is used when no caller binds the input.").
		Bind(node.BindInput).
		Output(PinValue, wildcard).
		Build()

	OutputSpec = node.Define(TypeOutput).
		Category("Graph").
		Describe("Publishes a declared output.").
		Bind(node.BindOutput).
		Queryable().
		Input(PinValue, wildcard, node.NoDefault()).
		Build()

	ParameterSpec = node.Define(TypeParameter).
		Category("Graph").
		Describe("Reads a parameter of the instanced graph.").
		Bind(node.BindParameter).
		Output(PinValue, wildcard).
		Build()

	LocalVariableDeclarationSpec = node.Define(TypeLocalVariableDeclaration).
		Category("Local variables").
		Bind(node.BindLocalDeclaration).
		Input(PinValue, wildcard, node.NoDefault()).
		Build()

	LocalVariableUsageSpec = node.Define(TypeLocalVariableUsage).
		Category("Local variables").
		Bind(node.BindLocalUsage).
		Output(PinValue, wildcard).
		Build()

	PassthroughSpec = node.Define(TypePassthrough).
		Bind(node.BindPassthrough).
		Input(PinInput, wildcard, node.InGroup("T")).
		Output(PinOutput, wildcard, node.InGroup("T")).
		Build()

	ToBufferSpec = node.Define(TypeToBuffer).
		Describe("Wraps a scalar into a single-element buffer.").
		Input(PinValue, wildcard).
		Output(PinBuffer, wildcard).
		Build()

	MakeVectorSpec    = makeSpec(TypeMakeVector, pintype.Vector)
	BreakVectorSpec   = breakSpec(TypeBreakVector, pintype.Vector)
	MakeVector2DSpec  = makeSpec(TypeMakeVector2D, pintype.Vector2D)
	BreakVector2DSpec = breakSpec(TypeBreakVector2D, pintype.Vector2D)

	PreviewSpec = node.Define(TypePreview).
		Category("Debug").
		Describe("Marks a pin whose value is shown to the author.").
		Bind(node.BindPreview).
		Queryable().
		Input(PinIn, wildcard, node.InGroup("T")).
		Output(PinOut, wildcard, node.InGroup("T")).
		Build()

	DebugSpec = node.Define(TypeDebug).
		Category("Debug").
		Describe("Reports every value flowing through it.").
		Input(PinIn, wildcard, node.InGroup("T")).
		Output(PinOut, wildcard, node.InGroup("T")).
		Build()

	RangeSpec = node.Define(TypeRange).
		Category("Debug").
		Describe("Reports the value range of the numbers flowing through it.").
		Input(PinIn, wildcard, node.InGroup("T")).
		Output(PinOut, wildcard, node.InGroup("T")).
		Build()

	ZeroSpec = node.Define(TypeZero).
		Describe("Produces the empty value of the type linked into Like.").
		Input(PinLike, wildcard, node.InGroup("T"), node.Virtual()).
		Output(PinValue, wildcard, node.InGroup("T")).
		Build()

	CallFunctionSpec = node.Define(TypeCallFunction).
		Category("Graph").
		Describe("Calls a function of the same asset.").
		Bind(node.BindFunctionCall).
		Build()

	CallGraphSpec = node.Define(TypeCallGraph).
		Category("Graph").
		Describe("Calls the main terminal of another asset.").
		Bind(node.BindGraphCall).
		Build()
)

func makeSpec(typ string, t pintype.Type) *node.Spec {
	b := node.Define(typ).Category("Composite")
	for _, m := range t.Members() {
		b.Input(m.Name, m.Type, node.Template())
	}
	return b.Output(PinValue, t, node.Template()).Build()
}

func breakSpec(typ string, t pintype.Type) *node.Spec {
	b := node.Define(typ).Category("Composite").Input(PinValue, t, node.Template())
	for _, m := range t.Members() {
		b.Output(m.Name, m.Type, node.Template())
	}
	return b.Build()
}
