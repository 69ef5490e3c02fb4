package nodeid

import (
	"slices"
	"strings"
)

// Address is the structured form of a node reference. Addresses are
// immutable; every derivation returns a copy. The nil address is empty.
type Address struct {
	names []string
}

// New builds an address from names.
func New(names ...string) *Address {
	return &Address{names: slices.Clone(names)}
}

func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.names, ".")
}

// Names returns a copy of the address's names.
func (a *Address) Names() []string {
	if a == nil {
		return nil
	}
	return slices.Clone(a.names)
}

// Equal reports whether both addresses hold the same names.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.names, other.names)
}

// Len returns the number of names.
func (a *Address) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

// Last returns the final name, the node id for node addresses.
func (a *Address) Last() string {
	if a.Len() == 0 {
		return ""
	}
	return a.names[len(a.names)-1]
}

// Child returns a copy with name appended.
func (a *Address) Child(name string) *Address {
	return a.Join(&Address{names: []string{name}})
}

// Join returns a copy of a followed by the names of other.
func (a *Address) Join(other *Address) *Address {
	out := &Address{names: make([]string, 0, a.Len()+other.Len())}
	if a != nil {
		out.names = append(out.names, a.names...)
	}
	if other != nil {
		out.names = append(out.names, other.names...)
	}
	return out
}
