package corenodes

import (
	"context"
	"fmt"
	"math"

	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

func computeInput(ctx context.Context, call node.Call) (cty.Value, error) {
	op := call.Node()
	guid, ok := Guid(op)
	if !ok {
		return cty.NilVal, fmt.Errorf("input %q is not declared", op.StringProperty(PropInput))
	}
	v, bound, err := call.GraphInput(ctx, guid)
	if err != nil || bound {
		return v, err
	}
	if _, ok := op.Pin(PinDefault); ok {
		return call.Input(ctx, PinDefault)
	}
	t := call.PinType(PinValue)
	if def, ok := op.Property(PropDefault); ok {
		return t.Convert(def)
	}
	return t.Zero(), nil
}

func computeParameter(ctx context.Context, call node.Call) (cty.Value, error) {
	guid, ok := Guid(call.Node())
	if !ok {
		return cty.NilVal, fmt.Errorf("parameter %q is not declared", call.Node().StringProperty(PropParameter))
	}
	return call.Parameter(ctx, guid)
}

func passthrough(in string) node.ComputeFunc {
	return func(ctx context.Context, call node.Call) (cty.Value, error) {
		return call.Input(ctx, in)
	}
}

func computeToBuffer(ctx context.Context, call node.Call) (cty.Value, error) {
	v, err := call.Input(ctx, PinValue)
	if err != nil {
		return cty.NilVal, err
	}
	return call.PinType(PinBuffer).Convert(v)
}

func computeMake(ctx context.Context, call node.Call) (cty.Value, error) {
	t := call.PinType(PinValue)
	members := make(map[string]cty.Value)
	for _, m := range t.Members() {
		v, err := call.Input(ctx, m.Name)
		if err != nil {
			return cty.NilVal, err
		}
		members[m.Name] = v
	}
	return t.Compose(members)
}

func computeBreak(ctx context.Context, call node.Call) (cty.Value, error) {
	v, err := call.Input(ctx, PinValue)
	if err != nil {
		return cty.NilVal, err
	}
	return call.PinType(PinValue).Decompose(v, call.Output())
}

func computeDebug(ctx context.Context, call node.Call) (cty.Value, error) {
	v, err := call.Input(ctx, PinIn)
	if err != nil {
		return cty.NilVal, err
	}
	call.Report(ctx, diag.Infof(call.Ref(), PinIn, "%s = %s", call.PinType(PinIn), v.GoString()))
	return v, nil
}

func computeRange(ctx context.Context, call node.Call) (cty.Value, error) {
	v, err := call.Input(ctx, PinIn)
	if err != nil {
		return cty.NilVal, err
	}
	lo, hi, n := math.Inf(1), math.Inf(-1), 0
	visitNumbers(v, func(f float64) {
		lo, hi, n = min(lo, f), max(hi, f), n+1
	})
	if n == 0 {
		call.Report(ctx, diag.Infof(call.Ref(), PinIn, "no numeric values"))
	} else {
		call.Report(ctx, diag.Infof(call.Ref(), PinIn, "range [%g, %g] over %d values", lo, hi, n))
	}
	return v, nil
}

func visitNumbers(v cty.Value, fn func(float64)) {
	if v.IsNull() || !v.IsKnown() {
		return
	}
	ty := v.Type()
	switch {
	case ty == cty.Number:
		fn(pintype.AsFloat(v))
	case ty.IsListType() || ty.IsTupleType() || ty.IsObjectType():
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			visitNumbers(elem, fn)
		}
	}
}

func computeZero(_ context.Context, call node.Call) (cty.Value, error) {
	return call.PinType(PinValue).Zero(), nil
}

func computeCallFunction(ctx context.Context, call node.Call) (cty.Value, error) {
	op := call.Node()
	terminal, ok := TerminalGuid(op)
	if !ok {
		return cty.NilVal, fmt.Errorf("function %q is not defined", op.StringProperty(PropFunction))
	}
	return call.CallFunction(ctx, terminal, op.MustPin(call.Output()).Decl.Guid)
}

func computeCallGraph(ctx context.Context, call node.Call) (cty.Value, error) {
	op := call.Node()
	return call.CallGraph(ctx, op.StringProperty(PropGraph), op.MustPin(call.Output()).Decl.Guid)
}

func errRemovedAtCompile(_ context.Context, call node.Call) (cty.Value, error) {
	return cty.NilVal, fmt.Errorf("node %s should have been removed by the compiler", call.Node().Type())
}
