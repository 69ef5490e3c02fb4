package pintype

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	vector2DCty = cty.Object(map[string]cty.Type{"x": cty.Number, "y": cty.Number})
	vectorCty   = cty.Object(map[string]cty.Type{"x": cty.Number, "y": cty.Number, "z": cty.Number})
)

func (i Inner) ctyType() cty.Type {
	switch i {
	case InnerBool:
		return cty.Bool
	case InnerInt, InnerFloat, InnerSeed:
		return cty.Number
	case InnerName:
		return cty.String
	case InnerVector2D:
		return vector2DCty
	case InnerVector:
		return vectorCty
	default:
		return cty.DynamicPseudoType
	}
}

// CtyType returns the cty type used to represent values of t.
func (t Type) CtyType() cty.Type {
	switch t.Kind {
	case KindScalar:
		return t.Inner.ctyType()
	case KindBuffer:
		return cty.List(t.Inner.ctyType())
	case KindBufferArray:
		return cty.List(cty.List(t.Inner.ctyType()))
	default:
		return cty.DynamicPseudoType
	}
}

func (i Inner) zero() cty.Value {
	switch i {
	case InnerBool:
		return cty.False
	case InnerInt, InnerFloat, InnerSeed:
		return cty.Zero
	case InnerName:
		return cty.StringVal("")
	case InnerVector2D:
		return Vector2DVal(0, 0)
	case InnerVector:
		return VectorVal(0, 0, 0)
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}

// Zero returns the typed empty value of t. Runtime errors degrade to it.
func (t Type) Zero() cty.Value {
	switch t.Kind {
	case KindScalar:
		return t.Inner.zero()
	case KindBuffer, KindBufferArray:
		return cty.ListValEmpty(t.CtyType().ElementType())
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}

// Convert coerces v into the representation of t. A non-collection value
// converted into a buffer becomes a single-element buffer.
func (t Type) Convert(v cty.Value) (cty.Value, error) {
	if t.Kind == KindWildcard || t.Kind == KindObject {
		return v, nil
	}
	if v.IsNull() {
		return t.Zero(), nil
	}
	if t.Kind == KindBuffer && !v.Type().IsListType() && !v.Type().IsTupleType() && !v.Type().IsSetType() {
		elem, err := t.InnerType().Convert(v)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.ListVal([]cty.Value{elem}), nil
	}
	out, err := convert.Convert(v, t.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", v.Type().FriendlyName(), t, err)
	}
	return out, nil
}

// VectorVal builds a vector value.
func VectorVal(x, y, z float64) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"x": cty.NumberFloatVal(x),
		"y": cty.NumberFloatVal(y),
		"z": cty.NumberFloatVal(z),
	})
}

// Vector2DVal builds a two-component vector value.
func Vector2DVal(x, y float64) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"x": cty.NumberFloatVal(x),
		"y": cty.NumberFloatVal(y),
	})
}

// AsFloat reads a known number value as float64. Unknown or null values read as zero.
func AsFloat(v cty.Value) float64 {
	if v.IsNull() || !v.IsKnown() || v.Type() != cty.Number {
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	return f
}

// FromCty infers the pin type of a literal. Numbers read as floats, strings
// as names, and homogeneous lists or tuples as buffers. ok is false when no
// pin type represents ty.
func FromCty(ty cty.Type) (t Type, ok bool) {
	switch {
	case ty == cty.Bool:
		return Bool, true
	case ty == cty.Number:
		return Float, true
	case ty == cty.String:
		return Name, true
	case ty.Equals(vectorCty):
		return Vector, true
	case ty.Equals(vector2DCty):
		return Vector2D, true
	case ty.IsListType():
		elem, ok := FromCty(ty.ElementType())
		if !ok || !elem.IsScalar() {
			return Type{}, false
		}
		return elem.BufferType(), true
	case ty.IsTupleType():
		elems := ty.TupleElementTypes()
		if len(elems) == 0 {
			return Type{}, false
		}
		first, ok := FromCty(elems[0])
		if !ok || !first.IsScalar() {
			return Type{}, false
		}
		for _, e := range elems[1:] {
			if next, ok := FromCty(e); !ok || next != first {
				return Type{}, false
			}
		}
		return first.BufferType(), true
	}
	return Type{}, false
}
