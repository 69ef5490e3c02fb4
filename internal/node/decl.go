package node

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Direction of data flow through a pin.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// PinFlags modify how the compiler treats a pin.
type PinFlags uint16

const (
	// FlagTemplate marks pins whose scalar/buffer form follows the other
	// template pins of the node.
	FlagTemplate PinFlags = 1 << iota
	// FlagNoDefault marks input pins that must be linked.
	FlagNoDefault
	// FlagVirtual marks input pins whose link only matters at compile time,
	// for instance to resolve a wildcard. Virtual links are cut before an
	// evaluator is carved.
	FlagVirtual
	// FlagHidden marks pins that are not shown to authors.
	FlagHidden
)

func (f PinFlags) Has(flag PinFlags) bool { return f&flag != 0 }

// PinDecl is the declaration of a single pin.
type PinDecl struct {
	Name      string
	Direction Direction
	Type      pintype.Type
	Flags     PinFlags
	Default   cty.Value
	// Group ties wildcard pins together: promoting one promotes all.
	Group string
	// Variadic is the name of the variadic group this pin is an element of.
	Variadic string
	SortKey  float64
	// Guid identifies dynamic pins that mirror a declared graph input or
	// output, e.g. the pins of a call node.
	Guid    uuid.UUID
	Tooltip string
}

// Promotable reports whether the pin type may be changed after creation.
func (d PinDecl) Promotable() bool {
	return d.Type.IsWildcard() || d.Flags.Has(FlagTemplate)
}

// VariadicDecl declares a group of homogeneous pins with a minimum arity.
type VariadicDecl struct {
	Name      string
	Direction Direction
	Type      pintype.Type
	Flags     PinFlags
	Default   cty.Value
	Group     string
	MinArity  int
	Tooltip   string
}

// ElementName returns the pin name used for the n-th element ever created
// in the group.
func (v VariadicDecl) ElementName(n int) string {
	return fmt.Sprintf("%s_%d", v.Name, n)
}

// Binding tells the compiler which structural role a node plays.
type Binding uint8

const (
	BindNone Binding = iota
	BindInput
	BindOutput
	BindParameter
	BindLocalDeclaration
	BindLocalUsage
	BindFunctionCall
	BindGraphCall
	BindPassthrough
	BindPreview
)

func (b Binding) String() string {
	switch b {
	case BindNone:
		return "none"
	case BindInput:
		return "input"
	case BindOutput:
		return "output"
	case BindParameter:
		return "parameter"
	case BindLocalDeclaration:
		return "local_declaration"
	case BindLocalUsage:
		return "local_usage"
	case BindFunctionCall:
		return "function_call"
	case BindGraphCall:
		return "graph_call"
	case BindPassthrough:
		return "passthrough"
	case BindPreview:
		return "preview"
	default:
		return fmt.Sprintf("Binding(%d)", uint8(b))
	}
}
