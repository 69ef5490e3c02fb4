package math

import (
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
)

// Node type names.
const (
	TypeConstant  = "Constant"
	TypeAdd       = "Add"
	TypeSubtract  = "Subtract"
	TypeMultiply  = "Multiply"
	TypeDivide    = "Divide"
	TypeMin       = "Min"
	TypeMax       = "Max"
	TypeSqrt      = "Sqrt"
	TypeLength    = "Length"
	TypeLess      = "Less"
	TypeLessEqual = "LessEqual"
	TypeSelect    = "Select"
	TypeLerp      = "Lerp"
	TypeDistance  = "Distance"
)

const (
	pinValue     = "Value"
	pinOut       = "Out"
	pinValues    = "Values"
	pinA         = "A"
	pinB         = "B"
	pinResult    = "Result"
	pinAlpha     = "Alpha"
	pinCondition = "Condition"
	pinTrue      = "True"
	pinFalse     = "False"
	pinDistance  = "Distance"
)

var wildcard = pintype.Wildcard()

var (
	ConstantSpec = node.Define(TypeConstant).
			Category("Math").
			Describe("Publishes the value assigned to its Value pin.").
			Input(pinValue, wildcard, node.InGroup("T")).
			Output(pinOut, wildcard, node.InGroup("T")).
			Build()

	AddSpec      = variadicSpec(TypeAdd, "Sums every element of Values.")
	MultiplySpec = variadicSpec(TypeMultiply, "Multiplies every element of Values.")

	SubtractSpec = binarySpec(TypeSubtract, "A - B.")
	DivideSpec   = binarySpec(TypeDivide, "A / B.")
	MinSpec      = binarySpec(TypeMin, "The smaller of A and B.")
	MaxSpec      = binarySpec(TypeMax, "The larger of A and B.")

	SqrtSpec = node.Define(TypeSqrt).
			Category("Math").
			Input(pinValue, pintype.Float, node.Template()).
			Output(pinResult, pintype.Float, node.Template()).
			Build()

	LengthSpec = node.Define(TypeLength).
			Category("Math").
			Describe("Euclidean length of a vector, or the absolute value of a number.").
			Input(pinValue, wildcard, node.Template()).
			Output(pinResult, pintype.Float, node.Template()).
			Build()

	LessSpec      = compareSpec(TypeLess)
	LessEqualSpec = compareSpec(TypeLessEqual)

	SelectSpec = node.Define(TypeSelect).
			Category("Math").
			Describe("Picks True or False by Condition. Only the picked branch is evaluated for scalar conditions.").
			LazyInputs().
			Input(pinCondition, pintype.Bool, node.Template()).
			Input(pinTrue, wildcard, node.InGroup("T")).
			Input(pinFalse, wildcard, node.InGroup("T")).
			Output(pinResult, wildcard, node.InGroup("T")).
			Build()

	LerpSpec = node.Define(TypeLerp).
			Category("Math").
			Describe("Linear interpolation between A and B.").
			Input(pinA, pintype.Float, node.Template()).
			Input(pinB, pintype.Float, node.Template()).
			Input(pinAlpha, pintype.Float, node.Template()).
			Output(pinResult, pintype.Float, node.Template()).
			Expand(expandLerp).
			Build()

	DistanceSpec = node.Define(TypeDistance).
			Category("Math").
			Describe("Euclidean distance between A and B.").
			Input(pinA, wildcard, node.InGroup("T"), node.Template()).
			Input(pinB, wildcard, node.InGroup("T"), node.Template()).
			Output(pinDistance, pintype.Float, node.Template()).
			Expand(expandDistance).
			Build()
)

func variadicSpec(typ, tooltip string) *node.Spec {
	return node.Define(typ).
		Category("Math").
		Describe(tooltip).
		VariadicInput(pinValues, wildcard, 2, node.InGroup("T")).
		Output(pinResult, wildcard, node.InGroup("T")).
		Build()
}

func binarySpec(typ, tooltip string) *node.Spec {
	return node.Define(typ).
		Category("Math").
		Describe(tooltip).
		Input(pinA, wildcard, node.InGroup("T")).
		Input(pinB, wildcard, node.InGroup("T")).
		Output(pinResult, wildcard, node.InGroup("T")).
		Build()
}

func compareSpec(typ string) *node.Spec {
	return node.Define(typ).
		Category("Math").
		Input(pinA, pintype.Float, node.Template()).
		Input(pinB, pintype.Float, node.Template()).
		Output(pinResult, pintype.Bool, node.Template()).
		Build()
}
