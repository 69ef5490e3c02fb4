package node

import (
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// CanPromote checks whether pin may be re-typed to t without changing
// anything.
func (n *Node) CanPromote(pin string, t pintype.Type) error {
	p, ok := n.Pin(pin)
	if !ok {
		return fmt.Errorf("node %s has no pin %q", n.spec.Type, pin)
	}
	if t.IsWildcard() {
		return fmt.Errorf("pin %q cannot be demoted to wildcard", pin)
	}
	if p.Type == t {
		return nil
	}
	if !p.Decl.Promotable() {
		return fmt.Errorf("pin %q of node %s is not promotable", pin, n.spec.Type)
	}
	if !p.Decl.Type.IsWildcard() {
		// Template pin with a concrete declared type: only its scalar/buffer
		// form may change.
		if t.InnerType() != p.Decl.Type.InnerType() || (!t.IsScalar() && !t.IsBuffer()) {
			return fmt.Errorf("template pin %q of type %s cannot become %s", pin, p.Decl.Type, t)
		}
	}
	for _, q := range n.groupMembers(p) {
		if q.Type.IsWildcard() || q.Type == t || q.Decl.Flags.Has(FlagTemplate) {
			continue
		}
		// A group resolved to a scalar may still widen to its buffer form.
		if t.IsBuffer() && q.Type.IsScalar() && q.Type.BufferType() == t {
			continue
		}
		return fmt.Errorf("pin %q is already %s; group %q cannot become %s", q.Decl.Name, q.Type, p.Decl.Group, t)
	}
	return nil
}

// PromotePin re-types a promotable pin and propagates the change to its
// wildcard group and to the node's other template pins. Promoting a pin that
// is not promotable is a programming error and panics; callers that handle
// user input check CanPromote first.
func (n *Node) PromotePin(pin string, t pintype.Type) {
	if err := n.CanPromote(pin, t); err != nil {
		panic(fmt.Sprintf("node: %v", err))
	}
	p := n.MustPin(pin)
	if p.Type == t {
		return
	}
	n.retype(p, t)

	for _, q := range n.groupMembers(p) {
		n.retype(q, t)
	}

	if !t.IsScalar() && !t.IsBuffer() {
		return
	}
	if !p.Decl.Flags.Has(FlagTemplate) {
		return
	}
	for _, q := range n.pins {
		if q == p || !q.Decl.Flags.Has(FlagTemplate) || q.Type.IsWildcard() {
			continue
		}
		if p.Decl.Group != "" && q.Decl.Group == p.Decl.Group {
			continue
		}
		n.retype(q, q.Type.WithBufferness(t.IsBuffer()))
	}
}

func (n *Node) groupMembers(p *Pin) []*Pin {
	if p.Decl.Group == "" {
		return nil
	}
	var out []*Pin
	for _, q := range n.pins {
		if q != p && q.Decl.Group == p.Decl.Group {
			out = append(out, q)
		}
	}
	return out
}

func (n *Node) retype(p *Pin, t pintype.Type) {
	if p.Type == t {
		return
	}
	p.Type = t
	if p.Decl.Direction != Input {
		return
	}
	if !t.HasDefault() {
		p.Default = cty.NilVal
		return
	}
	if p.Default != cty.NilVal {
		if conv, err := t.Convert(p.Default); err == nil {
			p.Default = conv
			return
		}
	}
	p.Default = t.Zero()
}

// HasWildcards reports whether any pin is still unresolved.
func (n *Node) HasWildcards() bool {
	for _, p := range n.Pins() {
		if p.Type.IsWildcard() {
			return true
		}
	}
	return false
}

// GroupType returns the resolved type of a wildcard group, or the wildcard
// type if no member has been promoted yet.
func (n *Node) GroupType(group string) pintype.Type {
	n.ensure()
	return n.groupType(group)
}

func (n *Node) groupType(group string) pintype.Type {
	for _, p := range n.pins {
		if p.Decl.Group == group && !p.Type.IsWildcard() {
			return p.Type
		}
	}
	return pintype.Wildcard()
}
