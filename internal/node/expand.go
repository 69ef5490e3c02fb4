package node

import (
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// ExpandFunc macro-expands a template node into other nodes. It runs once
// per template instance, after every pin of the template has a concrete type.
type ExpandFunc func(x Expander) error

// PinHandle refers to an output pin inside an expansion.
type PinHandle interface {
	Type() pintype.Type
}

// Expander is the compiler's side of a template expansion.
type Expander interface {
	// Template is the node being expanded, with resolved pin types.
	Template() *Node
	// Input returns the value entering the template through one of its
	// input pins.
	Input(pin string) PinHandle
	// NewNode adds a node of a registered type to the expansion.
	NewNode(typ string) (ExpandedNode, error)
	// SetOutput routes a value out of the expansion through one of the
	// template's output pins.
	SetOutput(pin string, from PinHandle) error
}

// ExpandedNode is a node created during an expansion.
type ExpandedNode interface {
	Op() *Node
	Output(pin string) PinHandle
	// SetInput links from into pin, promoting wildcard pins as needed.
	SetInput(pin string, from PinHandle) error
	SetDefault(pin string, v cty.Value) error
}
