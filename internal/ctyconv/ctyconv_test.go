package ctyconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFromNative(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want cty.Value
	}{
		{"bool", true, cty.True},
		{"int", 3, cty.NumberIntVal(3)},
		{"float", 1.5, cty.NumberFloatVal(1.5)},
		{"string", "x", cty.StringVal("x")},
		{"sequence", []any{1, "a"}, cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.StringVal("a")})},
		{"empty sequence", []any{}, cty.EmptyTupleVal},
		{"mapping", map[string]any{"x": 1.0, "y": 2}, cty.ObjectVal(map[string]cty.Value{
			"x": cty.NumberFloatVal(1),
			"y": cty.NumberIntVal(2),
		})},
		{"typed slice", []string{"a"}, cty.ListVal([]cty.Value{cty.StringVal("a")})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromNative(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "got %#v", got)
		})
	}

	_, err := FromNative(math.NaN())
	assert.Error(t, err)
	null, err := FromNative(nil)
	require.NoError(t, err)
	assert.True(t, null.IsNull())
}

func TestToNative(t *testing.T) {
	v := cty.ObjectVal(map[string]cty.Value{
		"pos":   cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberFloatVal(2.5)}),
		"label": cty.StringVal("a"),
		"ok":    cty.True,
		"none":  cty.NullVal(cty.String),
	})
	got, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"pos":   []any{1.0, 2.5},
		"label": "a",
		"ok":    true,
		"none":  nil,
	}, got)

	unknown, err := ToNative(cty.UnknownVal(cty.Number))
	require.NoError(t, err)
	assert.Nil(t, unknown)
}
