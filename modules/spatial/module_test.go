package spatial

import (
	"context"
	"testing"

	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/node/nodetest"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestModule_Validates(t *testing.T) {
	require.NoError(t, registry.New(&Module{}).Validate(context.Background()))
}

func TestComputePosition(t *testing.T) {
	tests := []struct {
		name     string
		query    map[string]cty.Value
		want     cty.Value
		warnings int
		wantErr  bool
	}{
		{
			name:  "reads the query position",
			query: map[string]cty.Value{query.ParamPosition: pintype.VectorVal(1, 2, 3)},
			want:  pintype.VectorVal(1, 2, 3),
		},
		{
			name:     "missing position warns and reads zero",
			want:     pintype.Vector.Zero(),
			warnings: 1,
		},
		{
			name:    "wrong type",
			query:   map[string]cty.Value{query.ParamPosition: cty.StringVal("here")},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call := nodetest.New(node.New(GetPositionSpec), pinPosition)
			for k, v := range tc.query {
				call.Query[k] = v
			}
			v, err := computePosition(context.Background(), call)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(v), "got %#v", v)
			assert.Len(t, call.Reported(), tc.warnings)
			for _, d := range call.Reported() {
				assert.Equal(t, diag.Warning, d.Severity)
			}
		})
	}
}
