package math

import (
	"fmt"
	gomath "math"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// binaryOp combines two numbers.
type binaryOp func(a, b float64) float64

// zip applies op over two values component by component. Numbers, vector
// objects and buffers of either are accepted; a number broadcasts over a
// vector, and a single-element buffer broadcasts over a longer one.
func zip(a, b cty.Value, op binaryOp) (cty.Value, error) {
	switch {
	case isList(a) || isList(b):
		return zipLists(a, b, func(x, y cty.Value) (cty.Value, error) { return zip(x, y, op) })
	case a.Type().IsObjectType() && b.Type().IsObjectType():
		if !a.Type().Equals(b.Type()) {
			return cty.NilVal, fmt.Errorf("cannot combine %s with %s", a.Type().FriendlyName(), b.Type().FriendlyName())
		}
		return mapAttrs(a, func(name string, x cty.Value) (cty.Value, error) { return number(op(num(x), num(b.GetAttr(name)))) })
	case a.Type().IsObjectType():
		y := num(b)
		return mapAttrs(a, func(_ string, x cty.Value) (cty.Value, error) { return number(op(num(x), y)) })
	case b.Type().IsObjectType():
		x := num(a)
		return mapAttrs(b, func(_ string, y cty.Value) (cty.Value, error) { return number(op(x, num(y))) })
	default:
		return number(op(num(a), num(b)))
	}
}

// compare is zip for predicates; the result is a bool or a buffer of bools.
func compare(a, b cty.Value, pred func(a, b float64) bool) (cty.Value, error) {
	if isList(a) || isList(b) {
		return zipLists(a, b, func(x, y cty.Value) (cty.Value, error) { return compare(x, y, pred) })
	}
	return cty.BoolVal(pred(num(a), num(b))), nil
}

// apply maps a unary function over every number inside v.
func apply(v cty.Value, fn func(float64) float64) (cty.Value, error) {
	switch {
	case isList(v):
		return mapList(v, func(x cty.Value) (cty.Value, error) { return apply(x, fn) })
	case v.Type().IsObjectType():
		return mapAttrs(v, func(_ string, x cty.Value) (cty.Value, error) { return number(fn(num(x))) })
	default:
		return number(fn(num(v)))
	}
}

func zipLists(a, b cty.Value, fn func(x, y cty.Value) (cty.Value, error)) (cty.Value, error) {
	as, bs := elems(a), elems(b)
	if len(as) == 0 || len(bs) == 0 {
		return emptyLike(a, b), nil
	}
	n := max(len(as), len(bs))
	if (len(as) != n && len(as) != 1) || (len(bs) != n && len(bs) != 1) {
		return cty.NilVal, fmt.Errorf("buffer lengths %d and %d do not match", len(as), len(bs))
	}
	out := make([]cty.Value, n)
	for i := range out {
		v, err := fn(as[min(i, len(as)-1)], bs[min(i, len(bs)-1)])
		if err != nil {
			return cty.NilVal, err
		}
		out[i] = v
	}
	return cty.ListVal(out), nil
}

func mapList(v cty.Value, fn func(cty.Value) (cty.Value, error)) (cty.Value, error) {
	if v.LengthInt() == 0 {
		return v, nil
	}
	out := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		r, err := fn(elem)
		if err != nil {
			return cty.NilVal, err
		}
		out = append(out, r)
	}
	return cty.ListVal(out), nil
}

func mapAttrs(v cty.Value, fn func(name string, x cty.Value) (cty.Value, error)) (cty.Value, error) {
	attrs := make(map[string]cty.Value, len(v.Type().AttributeTypes()))
	for name := range v.Type().AttributeTypes() {
		r, err := fn(name, v.GetAttr(name))
		if err != nil {
			return cty.NilVal, err
		}
		attrs[name] = r
	}
	return cty.ObjectVal(attrs), nil
}

// elems returns the elements of a buffer, or the value itself as a
// single-element slice.
func elems(v cty.Value) []cty.Value {
	if !isList(v) {
		return []cty.Value{v}
	}
	if v.LengthInt() == 0 {
		return nil
	}
	return v.AsValueSlice()
}

func emptyLike(a, b cty.Value) cty.Value {
	for _, v := range []cty.Value{a, b} {
		if v.Type().IsListType() {
			return cty.ListValEmpty(v.Type().ElementType())
		}
	}
	return cty.ListValEmpty(cty.Number)
}

func isList(v cty.Value) bool {
	ty := v.Type()
	return ty.IsListType() || ty.IsTupleType()
}

func num(v cty.Value) float64 { return pintype.AsFloat(v) }

func number(f float64) (cty.Value, error) {
	if gomath.IsNaN(f) {
		return cty.NilVal, fmt.Errorf("result is not a number")
	}
	return cty.NumberFloatVal(f), nil
}
