package math

import (
	"context"
	"fmt"
	gomath "math"

	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/zclconf/go-cty/cty"
)

func computeConstant(ctx context.Context, call node.Call) (cty.Value, error) {
	return call.Input(ctx, pinValue)
}

func fold(op binaryOp) node.ComputeFunc {
	return func(ctx context.Context, call node.Call) (cty.Value, error) {
		values, err := call.Variadic(ctx, pinValues)
		if err != nil {
			return cty.NilVal, err
		}
		if len(values) == 0 {
			return call.PinType(pinResult).Zero(), nil
		}
		acc := values[0]
		for _, v := range values[1:] {
			if acc, err = zip(acc, v, op); err != nil {
				return cty.NilVal, err
			}
		}
		return call.PinType(pinResult).Convert(acc)
	}
}

func binary(op binaryOp) node.ComputeFunc {
	return func(ctx context.Context, call node.Call) (cty.Value, error) {
		a, err := call.Input(ctx, pinA)
		if err != nil {
			return cty.NilVal, err
		}
		b, err := call.Input(ctx, pinB)
		if err != nil {
			return cty.NilVal, err
		}
		v, err := zip(a, b, op)
		if err != nil {
			return cty.NilVal, err
		}
		return call.PinType(pinResult).Convert(v)
	}
}

func unary(fn func(float64) float64) node.ComputeFunc {
	return func(ctx context.Context, call node.Call) (cty.Value, error) {
		v, err := call.Input(ctx, pinValue)
		if err != nil {
			return cty.NilVal, err
		}
		r, err := apply(v, fn)
		if err != nil {
			return cty.NilVal, err
		}
		return call.PinType(pinResult).Convert(r)
	}
}

func comparison(pred func(a, b float64) bool) node.ComputeFunc {
	return func(ctx context.Context, call node.Call) (cty.Value, error) {
		a, err := call.Input(ctx, pinA)
		if err != nil {
			return cty.NilVal, err
		}
		b, err := call.Input(ctx, pinB)
		if err != nil {
			return cty.NilVal, err
		}
		v, err := compare(a, b, pred)
		if err != nil {
			return cty.NilVal, err
		}
		return call.PinType(pinResult).Convert(v)
	}
}

func computeLength(ctx context.Context, call node.Call) (cty.Value, error) {
	v, err := call.Input(ctx, pinValue)
	if err != nil {
		return cty.NilVal, err
	}
	r, err := length(v)
	if err != nil {
		return cty.NilVal, err
	}
	return call.PinType(pinResult).Convert(r)
}

func length(v cty.Value) (cty.Value, error) {
	switch {
	case isList(v):
		return mapList(v, length)
	case v.Type().IsObjectType():
		sum := 0.0
		for name := range v.Type().AttributeTypes() {
			f := num(v.GetAttr(name))
			sum += f * f
		}
		return number(gomath.Sqrt(sum))
	default:
		return number(gomath.Abs(num(v)))
	}
}

// computeSelect reads only the picked branch when the condition is a
// single bool. Buffer conditions pick element by element.
func computeSelect(ctx context.Context, call node.Call) (cty.Value, error) {
	cond, err := call.Input(ctx, pinCondition)
	if err != nil {
		return cty.NilVal, err
	}
	if !isList(cond) {
		if cond.True() {
			return call.Input(ctx, pinTrue)
		}
		return call.Input(ctx, pinFalse)
	}

	a, err := call.Input(ctx, pinTrue)
	if err != nil {
		return cty.NilVal, err
	}
	b, err := call.Input(ctx, pinFalse)
	if err != nil {
		return cty.NilVal, err
	}
	conds, as, bs := elems(cond), elems(a), elems(b)
	if len(conds) == 0 {
		return call.PinType(pinResult).Zero(), nil
	}
	out := make([]cty.Value, len(conds))
	for i, c := range conds {
		src := bs
		if c.True() {
			src = as
		}
		if len(src) == 0 {
			return cty.NilVal, fmt.Errorf("select branch is empty")
		}
		out[i] = src[min(i, len(src)-1)]
	}
	return call.PinType(pinResult).Convert(cty.ListVal(out))
}
