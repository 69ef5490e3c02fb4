package node

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrMinArity is returned when removing a variadic element would leave the
// group below its minimum arity.
var ErrMinArity = errors.New("variadic group is at its minimum arity")

// VariadicPins returns the elements of a group ordered by sort key.
func (n *Node) VariadicPins(group string) []*Pin {
	n.ensure()
	return n.variadicPins(group)
}

func (n *Node) variadicPins(group string) []*Pin {
	var out []*Pin
	for _, p := range n.pins {
		if p.Decl.Variadic == group {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Pin) int { return cmp.Compare(a.Decl.SortKey, b.Decl.SortKey) })
	return out
}

// AddPin appends a new element to a variadic group.
func (n *Node) AddPin(group string) (*Pin, error) {
	n.ensure()
	v, ok := n.spec.VariadicGroup(group)
	if !ok {
		return nil, fmt.Errorf("node %s has no variadic group %q", n.spec.Type, group)
	}
	return n.appendElement(v), nil
}

func (n *Node) appendElement(v VariadicDecl) *Pin {
	key := 0.0
	if elems := n.variadicPins(v.Name); len(elems) > 0 {
		key = elems[len(elems)-1].Decl.SortKey + 1
	}
	return n.newElement(v, key)
}

// InsertPin inserts a new element at position index of a variadic group.
// The new element gets a sort key halfway between its neighbours.
func (n *Node) InsertPin(group string, index int) (*Pin, error) {
	n.ensure()
	v, ok := n.spec.VariadicGroup(group)
	if !ok {
		return nil, fmt.Errorf("node %s has no variadic group %q", n.spec.Type, group)
	}
	elems := n.VariadicPins(group)
	if index < 0 || index > len(elems) {
		return nil, fmt.Errorf("index %d out of range for group %q with %d elements", index, group, len(elems))
	}

	var key float64
	switch {
	case len(elems) == 0:
		key = 0
	case index == len(elems):
		key = elems[len(elems)-1].Decl.SortKey + 1
	case index == 0:
		key = elems[0].Decl.SortKey - 1
	default:
		key = (elems[index-1].Decl.SortKey + elems[index].Decl.SortKey) / 2
	}
	return n.newElement(v, key), nil
}

func (n *Node) newElement(v VariadicDecl, key float64) *Pin {
	idx := n.nextIndex[v.Name]
	n.nextIndex[v.Name] = idx + 1

	d := PinDecl{
		Name:      v.ElementName(idx),
		Direction: v.Direction,
		Type:      v.Type,
		Flags:     v.Flags,
		Default:   v.Default,
		Group:     v.Group,
		Variadic:  v.Name,
		SortKey:   key,
		Tooltip:   v.Tooltip,
	}
	p := &Pin{Decl: d, Type: d.Type, Default: d.Default}
	n.insert(p)

	// New elements join an already resolved group.
	if v.Group != "" {
		if t := n.groupType(v.Group); !t.IsWildcard() {
			n.retype(p, t)
		}
	}
	return p
}

// RemovePin removes a variadic element.
func (n *Node) RemovePin(name string) error {
	p, ok := n.Pin(name)
	if !ok {
		return fmt.Errorf("node %s has no pin %q", n.spec.Type, name)
	}
	if p.Decl.Variadic == "" {
		return fmt.Errorf("pin %q is not part of a variadic group", name)
	}
	v, _ := n.spec.VariadicGroup(p.Decl.Variadic)
	if len(n.VariadicPins(v.Name)) <= v.MinArity {
		return fmt.Errorf("removing %q: %w", name, ErrMinArity)
	}
	n.pins = slices.DeleteFunc(n.pins, func(q *Pin) bool { return q == p })
	delete(n.byName, name)
	return nil
}
