package pintype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestType_CanCastTo(t *testing.T) {
	testCases := []struct {
		name string
		from Type
		to   Type
		want bool
	}{
		{"identity", Float, Float, true},
		{"scalar to buffer of same inner", Float, Buffer(InnerFloat), true},
		{"buffer to scalar", Buffer(InnerFloat), Float, false},
		{"int widens to float", Int, Float, true},
		{"float does not narrow to int", Float, Int, false},
		{"int scalar into float buffer", Int, Buffer(InnerFloat), true},
		{"anything into wildcard", Vector, Wildcard(), true},
		{"wildcard into anything", Wildcard(), Buffer(InnerVector), true},
		{"object into base object", Object("Mesh"), Object(""), true},
		{"object into other class", Object("Mesh"), Object("Points"), false},
		{"vector into float", Vector, Float, false},
		{"buffer array into buffer", BufferArray(InnerFloat), Buffer(InnerFloat), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanCastTo(tc.to))
		})
	}
}

func TestType_Bufferness(t *testing.T) {
	assert.Equal(t, Buffer(InnerVector), Vector.WithBufferness(true))
	assert.Equal(t, Vector, Buffer(InnerVector).WithBufferness(false))
	assert.Equal(t, Object("Mesh"), Object("Mesh").WithBufferness(true))
	assert.Equal(t, Float, Buffer(InnerFloat).InnerType())
	assert.Equal(t, Buffer(InnerFloat), Float.BufferType())

	assert.True(t, Float.HasDefault())
	assert.True(t, Buffer(InnerVector).HasDefault())
	assert.False(t, Object("Mesh").HasDefault())
	assert.False(t, Wildcard().HasDefault())
	assert.True(t, Wildcard().IsWildcard())
}

func TestParse(t *testing.T) {
	testCases := []struct {
		src     string
		want    Type
		wantErr bool
	}{
		{src: "float", want: Float},
		{src: "buffer(vector)", want: Buffer(InnerVector)},
		{src: "array(float)", want: BufferArray(InnerFloat)},
		{src: "object(Mesh)", want: Object("Mesh")},
		{src: "object", want: Object("")},
		{src: "wildcard", want: Wildcard()},
		{src: `"buffer(int)"`, want: Buffer(InnerInt)},
		{src: "string", wantErr: true},
		{src: "buffer(float, int)", wantErr: true},
		{src: "list(float)", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got, err := Parse(tc.src)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.src[0] != '"' {
				assert.Equal(t, tc.src, got.String())
			}
		})
	}
}

func TestType_ZeroAndConvert(t *testing.T) {
	assert.True(t, Float.Zero().RawEquals(cty.Zero))
	assert.True(t, Vector.Zero().RawEquals(VectorVal(0, 0, 0)))
	assert.Equal(t, 0, Buffer(InnerFloat).Zero().LengthInt())

	v, err := Buffer(InnerFloat).Convert(cty.NumberIntVal(3))
	require.NoError(t, err)
	assert.Equal(t, 1, v.LengthInt())

	v, err = Buffer(InnerFloat).Convert(cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}))
	require.NoError(t, err)
	assert.True(t, v.Type().Equals(cty.List(cty.Number)))

	_, err = Float.Convert(cty.StringVal("nope"))
	require.Error(t, err)

	v, err = Float.Convert(cty.NullVal(cty.Number))
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.Zero))
}

func TestType_ComposeDecompose(t *testing.T) {
	t.Run("scalar vector", func(t *testing.T) {
		v, err := Vector.Compose(map[string]cty.Value{
			"X": cty.NumberFloatVal(1),
			"Z": cty.NumberFloatVal(3),
		})
		require.NoError(t, err)
		assert.True(t, v.RawEquals(VectorVal(1, 0, 3)))

		y, err := Vector.Decompose(v, "Z")
		require.NoError(t, err)
		assert.Equal(t, 3.0, AsFloat(y))
	})

	t.Run("buffer vector broadcasts", func(t *testing.T) {
		bt := Buffer(InnerVector)
		v, err := bt.Compose(map[string]cty.Value{
			"X": cty.ListVal([]cty.Value{cty.NumberFloatVal(1), cty.NumberFloatVal(2)}),
			"Y": cty.ListVal([]cty.Value{cty.NumberFloatVal(5)}),
		})
		require.NoError(t, err)
		require.Equal(t, 2, v.LengthInt())

		ys, err := bt.Decompose(v, "Y")
		require.NoError(t, err)
		for it := ys.ElementIterator(); it.Next(); {
			_, y := it.Element()
			assert.Equal(t, 5.0, AsFloat(y))
		}
	})

	t.Run("members follow bufferness", func(t *testing.T) {
		ms := Buffer(InnerVector2D).Members()
		require.Len(t, ms, 2)
		assert.Equal(t, Buffer(InnerFloat), ms[0].Type)
		assert.False(t, Float.IsComposite())
		_, err := Float.Compose(nil)
		require.Error(t, err)
	})
}

func TestFromCty(t *testing.T) {
	tests := []struct {
		name   string
		value  cty.Value
		want   Type
		wantOK bool
	}{
		{"number", cty.NumberIntVal(2), Float, true},
		{"bool", cty.True, Bool, true},
		{"string", cty.StringVal("grass"), Name, true},
		{"vector", VectorVal(1, 2, 3), Vector, true},
		{"vector2d", Vector2DVal(1, 2), Vector2D, true},
		{"number tuple", cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), Buffer(InnerFloat), true},
		{"vector list", cty.ListVal([]cty.Value{VectorVal(0, 0, 0)}), Buffer(InnerVector), true},
		{"mixed tuple", cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.True}), Type{}, false},
		{"empty tuple", cty.EmptyTupleVal, Type{}, false},
		{"odd object", cty.ObjectVal(map[string]cty.Value{"w": cty.Zero}), Type{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromCty(tc.value.Type())
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
