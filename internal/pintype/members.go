package pintype

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Member is one named component of a composite type. Split pins expose one
// sub-pin per member.
type Member struct {
	Name string
	Attr string
	Type Type
}

var innerMembers = map[Inner][]Member{
	InnerVector2D: {
		{Name: "X", Attr: "x", Type: Float},
		{Name: "Y", Attr: "y", Type: Float},
	},
	InnerVector: {
		{Name: "X", Attr: "x", Type: Float},
		{Name: "Y", Attr: "y", Type: Float},
		{Name: "Z", Attr: "z", Type: Float},
	},
}

// Members returns the components of a composite scalar or buffer type. For
// buffers each member is a buffer of the member's scalar type.
func (t Type) Members() []Member {
	if t.Kind != KindScalar && t.Kind != KindBuffer {
		return nil
	}
	base := innerMembers[t.Inner]
	if len(base) == 0 {
		return nil
	}
	out := make([]Member, len(base))
	for i, m := range base {
		out[i] = Member{Name: m.Name, Attr: m.Attr, Type: m.Type.WithBufferness(t.IsBuffer())}
	}
	return out
}

// Member looks up a single component by name.
func (t Type) Member(name string) (Member, bool) {
	for _, m := range t.Members() {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// IsComposite reports whether t can be split into member sub-pins.
func (t Type) IsComposite() bool {
	return len(t.Members()) > 0
}

// Compose assembles a composite value from member values keyed by member
// name. Buffer members are broadcast: single-element buffers repeat to the
// length of the longest member.
func (t Type) Compose(members map[string]cty.Value) (cty.Value, error) {
	ms := t.Members()
	if len(ms) == 0 {
		return cty.NilVal, fmt.Errorf("type %s has no members", t)
	}
	if t.IsScalar() {
		attrs := make(map[string]cty.Value, len(ms))
		for _, m := range ms {
			v, ok := members[m.Name]
			if !ok {
				v = m.Type.Zero()
			}
			attrs[m.Attr] = cty.NumberFloatVal(AsFloat(v))
		}
		return cty.ObjectVal(attrs), nil
	}

	length := 0
	cols := make(map[string][]cty.Value, len(ms))
	for _, m := range ms {
		v, ok := members[m.Name]
		if !ok || v.IsNull() {
			continue
		}
		col := v.AsValueSlice()
		cols[m.Name] = col
		length = max(length, len(col))
	}
	if length == 0 {
		return t.Zero(), nil
	}
	rows := make([]cty.Value, length)
	for i := range rows {
		attrs := make(map[string]cty.Value, len(ms))
		for _, m := range ms {
			attrs[m.Attr] = cty.NumberFloatVal(broadcastAt(cols[m.Name], i))
		}
		rows[i] = cty.ObjectVal(attrs)
	}
	return cty.ListVal(rows), nil
}

// Decompose extracts one member from a composite value.
func (t Type) Decompose(v cty.Value, member string) (cty.Value, error) {
	m, ok := t.Member(member)
	if !ok {
		return cty.NilVal, fmt.Errorf("type %s has no member %q", t, member)
	}
	if v.IsNull() {
		return m.Type.Zero(), nil
	}
	if t.IsScalar() {
		return v.GetAttr(m.Attr), nil
	}
	if v.LengthInt() == 0 {
		return m.Type.Zero(), nil
	}
	out := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		out = append(out, elem.GetAttr(m.Attr))
	}
	return cty.ListVal(out), nil
}

func broadcastAt(col []cty.Value, i int) float64 {
	switch len(col) {
	case 0:
		return 0
	case 1:
		return AsFloat(col[0])
	default:
		if i < len(col) {
			return AsFloat(col[i])
		}
		return 0
	}
}
