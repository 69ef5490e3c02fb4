package corenodes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/node/nodetest"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func typed(spec *node.Spec, types map[string]pintype.Type) *node.Node {
	op := node.New(spec)
	for pin, t := range types {
		op.MustPin(pin).Type = t
	}
	return op
}

func TestModule_Validates(t *testing.T) {
	reg := registry.New(&Module{})
	require.NoError(t, reg.Validate(context.Background()))
	assert.Contains(t, reg.Types(), TypeCallGraph)
}

func TestComputeParameter(t *testing.T) {
	ctx := context.Background()
	guid := uuid.New()

	op := typed(ParameterSpec, map[string]pintype.Type{PinValue: pintype.Float})
	call := nodetest.New(op, PinValue)
	_, err := computeParameter(ctx, call)
	assert.ErrorContains(t, err, "is not declared")

	SetGuid(op, PropGuid, guid)
	call.Parameters[guid] = cty.NumberIntVal(7)
	v, err := computeParameter(ctx, call)
	require.NoError(t, err)
	assert.Equal(t, 7.0, pintype.AsFloat(v))
}

func TestComputeInput(t *testing.T) {
	ctx := context.Background()
	guid := uuid.New()
	tests := []struct {
		name  string
		bound *cty.Value
		def   *cty.Value
		want  float64
	}{
		{name: "bound by caller", bound: ptr(cty.NumberIntVal(3)), def: ptr(cty.NumberIntVal(1)), want: 3},
		{name: "declared default", def: ptr(cty.NumberIntVal(1)), want: 1},
		{name: "zero", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := typed(InputSpec, map[string]pintype.Type{PinValue: pintype.Float})
			SetGuid(op, PropGuid, guid)
			if tc.def != nil {
				op.SetProperty(PropDefault, *tc.def)
			}
			call := nodetest.New(op, PinValue)
			if tc.bound != nil {
				call.GraphInputs[guid] = *tc.bound
			}
			v, err := computeInput(ctx, call)
			require.NoError(t, err)
			assert.Equal(t, tc.want, pintype.AsFloat(v))
		})
	}

	_, err := computeInput(ctx, nodetest.New(node.New(InputSpec), PinValue))
	assert.ErrorContains(t, err, "is not declared")
}

func ptr(v cty.Value) *cty.Value { return &v }

func TestComputeToBuffer(t *testing.T) {
	op := typed(ToBufferSpec, map[string]pintype.Type{
		PinValue:  pintype.Float,
		PinBuffer: pintype.Buffer(pintype.InnerFloat),
	})
	v, err := computeToBuffer(context.Background(), nodetest.New(op, PinBuffer).Set(PinValue, cty.NumberIntVal(2)))
	require.NoError(t, err)
	require.Equal(t, 1, v.LengthInt())
	assert.Equal(t, 2.0, pintype.AsFloat(v.Index(cty.NumberIntVal(0))))
}

func TestComputeMakeAndBreak(t *testing.T) {
	ctx := context.Background()

	mk := nodetest.New(node.New(MakeVectorSpec), PinValue).
		Set("X", cty.NumberIntVal(1)).
		Set("Z", cty.NumberIntVal(3))
	v, err := computeMake(ctx, mk)
	require.NoError(t, err)
	assert.True(t, pintype.VectorVal(1, 0, 3).RawEquals(v), "got %#v", v)

	for member, want := range map[string]float64{"X": 1, "Y": 0, "Z": 3} {
		br := nodetest.New(node.New(BreakVectorSpec), member).Set(PinValue, v)
		got, err := computeBreak(ctx, br)
		require.NoError(t, err)
		assert.Equal(t, want, pintype.AsFloat(got), member)
	}
}

func TestComputeDebugAndRange(t *testing.T) {
	ctx := context.Background()
	buf := pintype.Buffer(pintype.InnerFloat)
	values := cty.ListVal([]cty.Value{cty.NumberIntVal(4), cty.NumberFloatVal(-1.5), cty.NumberIntVal(2)})
	tests := []struct {
		name    string
		spec    *node.Spec
		compute node.ComputeFunc
		in      cty.Value
		want    string
	}{
		{name: "debug", spec: DebugSpec, compute: computeDebug, in: cty.NumberIntVal(3), want: "float = "},
		{name: "range", spec: RangeSpec, compute: computeRange, in: values, want: "range [-1.5, 4] over 3 values"},
		{name: "empty range", spec: RangeSpec, compute: computeRange, in: cty.ListValEmpty(cty.Number), want: "no numeric values"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			typ := pintype.Float
			if tc.in.Type().IsListType() {
				typ = buf
			}
			op := typed(tc.spec, map[string]pintype.Type{PinIn: typ, PinOut: typ})
			call := nodetest.New(op, PinOut).Set(PinIn, tc.in)

			out, err := tc.compute(ctx, call)
			require.NoError(t, err)
			assert.True(t, tc.in.Equals(out).True(), "value passes through")

			reported := call.Reported()
			require.Len(t, reported, 1)
			assert.Equal(t, diag.Info, reported[0].Severity)
			assert.Contains(t, reported[0].Summary, tc.want)
			assert.Equal(t, PinIn, reported[0].Pin)
		})
	}
}

func TestComputeZero(t *testing.T) {
	op := typed(ZeroSpec, map[string]pintype.Type{PinValue: pintype.Vector})
	v, err := computeZero(context.Background(), nodetest.New(op, PinValue))
	require.NoError(t, err)
	assert.True(t, pintype.Vector.Zero().RawEquals(v))
}

func TestComputeCalls(t *testing.T) {
	ctx := context.Background()
	out := uuid.New()

	op := node.New(CallGraphSpec)
	op.SetProperty(PropGraph, cty.StringVal("rock"))
	op.AddDynamicPin(node.PinDecl{Name: "height", Direction: node.Output, Type: pintype.Float, Guid: out})
	call := nodetest.New(op, "height")
	call.Graphs["rock"] = map[uuid.UUID]cty.Value{out: cty.NumberIntVal(5)}
	v, err := computeCallGraph(ctx, call)
	require.NoError(t, err)
	assert.Equal(t, 5.0, pintype.AsFloat(v))

	fn := node.New(CallFunctionSpec)
	fn.SetProperty(PropFunction, cty.StringVal("falloff"))
	fn.AddDynamicPin(node.PinDecl{Name: "r", Direction: node.Output, Type: pintype.Float, Guid: out})
	_, err = computeCallFunction(ctx, nodetest.New(fn, "r"))
	assert.ErrorContains(t, err, `function "falloff" is not defined`)

	SetGuid(fn, PropTerminal, uuid.New())
	fcall := nodetest.New(fn, "r")
	fcall.Functions[out] = cty.NumberIntVal(2)
	v, err = computeCallFunction(ctx, fcall)
	require.NoError(t, err)
	assert.Equal(t, 2.0, pintype.AsFloat(v))
}

func TestErrRemovedAtCompile(t *testing.T) {
	_, err := errRemovedAtCompile(context.Background(), nodetest.New(node.New(LocalVariableUsageSpec), PinValue))
	assert.ErrorContains(t, err, "LocalVariableUsage should have been removed")
}
