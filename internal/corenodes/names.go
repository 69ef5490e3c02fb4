package corenodes

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Node type names.
const (
	TypeInput                    = "Input"
	TypeOutput                   = "Output"
	TypeParameter                = "Parameter"
	TypeLocalVariableDeclaration = "LocalVariableDeclaration"
	TypeLocalVariableUsage       = "LocalVariableUsage"
	TypePassthrough              = "Passthrough"
	TypeToBuffer                 = "ToBuffer"
	TypeMakeVector               = "MakeVector"
	TypeBreakVector              = "BreakVector"
	TypeMakeVector2D             = "MakeVector2D"
	TypeBreakVector2D            = "BreakVector2D"
	TypePreview                  = "Preview"
	TypeDebug                    = "Debug"
	TypeRange                    = "Range"
	TypeZero                     = "Zero"
	TypeCallFunction             = "CallFunction"
	TypeCallGraph                = "CallGraph"
)

// Pin names shared by several core nodes.
const (
	PinValue   = "Value"
	PinDefault = "Default"
	PinInput   = "Input"
	PinOutput  = "Output"
	PinIn      = "In"
	PinOut     = "Out"
	PinBuffer  = "Buffer"
	PinLike    = "Like"
)

// Property names. Authors set the name properties; the serializer resolves
// them and records the guid properties.
const (
	PropInput      = "input"
	PropOutput     = "output"
	PropParameter  = "parameter"
	PropName       = "name"
	PropFunction   = "function"
	PropGraph      = "graph"
	PropParameters = "parameters"
	PropGuid       = "guid"
	PropDefault    = "default"
	PropTerminal   = "terminal"
)

var (
	makeNodes = map[pintype.Inner]string{
		pintype.InnerVector:   TypeMakeVector,
		pintype.InnerVector2D: TypeMakeVector2D,
	}
	breakNodes = map[pintype.Inner]string{
		pintype.InnerVector:   TypeBreakVector,
		pintype.InnerVector2D: TypeBreakVector2D,
	}
)

// MakeNodes maps composite scalar types to the node type that assembles
// them from members. Make nodes take one input per member and produce Value.
func MakeNodes() map[pintype.Type]string {
	out := make(map[pintype.Type]string, len(makeNodes))
	for inner, typ := range makeNodes {
		out[pintype.Scalar(inner)] = typ
	}
	return out
}

// BreakNodes maps composite scalar types to the node type that splits them.
// Break nodes take Value and produce one output per member.
func BreakNodes() map[pintype.Type]string {
	out := make(map[pintype.Type]string, len(breakNodes))
	for inner, typ := range breakNodes {
		out[pintype.Scalar(inner)] = typ
	}
	return out
}

// Guid reads the guid property recorded by the serializer.
func Guid(op *node.Node) (uuid.UUID, bool) {
	return guidProperty(op, PropGuid)
}

// TerminalGuid reads the callee terminal of a CallFunction node.
func TerminalGuid(op *node.Node) (uuid.UUID, bool) {
	return guidProperty(op, PropTerminal)
}

func guidProperty(op *node.Node, name string) (uuid.UUID, bool) {
	s := op.StringProperty(name)
	if s == "" {
		return uuid.Nil, false
	}
	g, err := uuid.Parse(s)
	return g, err == nil
}

// SetGuid records a guid property.
func SetGuid(op *node.Node, name string, g uuid.UUID) {
	op.SetProperty(name, cty.StringVal(g.String()))
}
