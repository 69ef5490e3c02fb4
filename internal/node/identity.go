package node

import (
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/zclconf/go-cty/cty"
)

// PinIdentity is the comparable description of one pin.
type PinIdentity struct {
	Name      string
	Direction Direction
	Type      string
	Default   string
	SortKey   float64
	Guid      string
}

// Identity is the serialization-phase view of a node: its pin layout,
// defaults and properties. Two nodes with equal identities compile to the
// same IR.
type Identity struct {
	Type       string
	Pins       []PinIdentity
	Properties map[string]string
}

// Identity captures the node's current identity.
func (n *Node) Identity() Identity {
	id := Identity{Type: n.spec.Type, Properties: make(map[string]string, len(n.properties))}
	for _, p := range n.Pins() {
		pi := PinIdentity{
			Name:      p.Decl.Name,
			Direction: p.Decl.Direction,
			Type:      p.Type.String(),
			Default:   renderValue(p.Default),
			SortKey:   p.Decl.SortKey,
		}
		if p.dynamic {
			pi.Guid = p.Decl.Guid.String()
		}
		id.Pins = append(id.Pins, pi)
	}
	for k, v := range n.properties {
		id.Properties[k] = renderValue(v)
	}
	return id
}

// IdenticalTo reports whether two nodes have the same identity.
func (n *Node) IdenticalTo(other *Node) bool {
	if other == nil {
		return false
	}
	return cmp.Equal(n.Identity(), other.Identity())
}

// Diff returns a human-readable identity diff, empty when identical.
func (n *Node) Diff(other *Node) string {
	return cmp.Diff(n.Identity(), other.Identity())
}

func renderValue(v cty.Value) string {
	if v == cty.NilVal {
		return ""
	}
	return v.GoString()
}

// SortedPropertyNames returns the property names in lexical order.
func (n *Node) SortedPropertyNames() []string {
	names := make([]string, 0, len(n.properties))
	for k := range n.properties {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
