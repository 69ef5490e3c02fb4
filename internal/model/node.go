package model

import (
	"maps"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// LinkRef names the output pin (or a member of a composite output pin) an
// input is linked from.
type LinkRef struct {
	Node   string
	Pin    string
	Member string
}

func (l LinkRef) String() string {
	s := "node." + l.Node + "." + l.Pin
	if l.Member != "" {
		s += "." + l.Member
	}
	return s
}

// PinAssign is what the author assigned to an input pin. Exactly one of
// Link, Value or Members is set.
type PinAssign struct {
	Link    *LinkRef
	Value   cty.Value
	Members map[string]*PinAssign
}

// IsSplit reports whether the pin is assigned member by member.
func (a *PinAssign) IsSplit() bool { return len(a.Members) > 0 }

// LinkTo is a shorthand for a linked assignment.
func LinkTo(node, pin string) *PinAssign {
	return &PinAssign{Link: &LinkRef{Node: node, Pin: pin}}
}

// LinkToMember is a shorthand for a link from a member of a composite output.
func LinkToMember(node, pin, member string) *PinAssign {
	return &PinAssign{Link: &LinkRef{Node: node, Pin: pin, Member: member}}
}

// Literal is a shorthand for a default-value assignment.
func Literal(v cty.Value) *PinAssign {
	return &PinAssign{Value: v}
}

// Node is one authored node of a terminal.
type Node struct {
	Name       string
	Type       string
	Properties map[string]cty.Value
	// Promotions pin explicit types onto wildcard or template pins.
	Promotions map[string]pintype.Type
	// Variadic overrides the element count of variadic groups.
	Variadic map[string]int
	Pins     map[string]*PinAssign
}

// NewNode returns an empty node of the given type.
func NewNode(name, typ string) *Node {
	return &Node{
		Name:       name,
		Type:       typ,
		Properties: make(map[string]cty.Value),
		Promotions: make(map[string]pintype.Type),
		Variadic:   make(map[string]int),
		Pins:       make(map[string]*PinAssign),
	}
}

// Clone returns a copy that shares no maps with n.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:       n.Name,
		Type:       n.Type,
		Properties: maps.Clone(n.Properties),
		Promotions: maps.Clone(n.Promotions),
		Variadic:   maps.Clone(n.Variadic),
		Pins:       make(map[string]*PinAssign, len(n.Pins)),
	}
	for k, a := range n.Pins {
		c.Pins[k] = a.clone()
	}
	return c
}

func (a *PinAssign) clone() *PinAssign {
	c := &PinAssign{Value: a.Value}
	if a.Link != nil {
		l := *a.Link
		c.Link = &l
	}
	if a.Members != nil {
		c.Members = make(map[string]*PinAssign, len(a.Members))
		for k, m := range a.Members {
			c.Members[k] = m.clone()
		}
	}
	return c
}
