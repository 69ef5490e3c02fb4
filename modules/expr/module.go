// Package expr provides the Expression node, which evaluates a CEL
// expression over a variadic group of float inputs.
//
// The expression reads its inputs from the list variable "values" and the
// sample position, when the query carries one, from "position" (a list of
// x, y and z):
//
//	node "Expression" "falloff" {
//	  properties = { expression = "values[0] * (1.0 - position[2] / values[1])" }
//	  Values_0   = node.strength.Value
//	  Values_1   = 64
//	}
package expr

import (
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
)

const (
	TypeExpression = "Expression"

	// PropExpression holds the CEL source of an Expression node.
	PropExpression = "expression"

	pinValues = "Values"
	pinResult = "Result"
)

var ExpressionSpec = node.Define(TypeExpression).
	Category("Math").
	Describe("Evaluates a CEL expression over Values.").
	VariadicInput(pinValues, pintype.Float, 0).
	Output(pinResult, pintype.Float).
	Build()

// Module implements the registry.Module interface for this package.
type Module struct {
	programs *programCache
}

// Register registers the Expression node type.
func (m *Module) Register(r *registry.Registry) {
	if m.programs == nil {
		m.programs = newProgramCache()
	}
	r.Register(ExpressionSpec, map[string]node.ComputeFunc{pinResult: m.computeExpression})
}
