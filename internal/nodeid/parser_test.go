package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input      string
		want       []string
		wantOffset int
		wantReason string
	}{
		{input: "terrain", want: []string{"terrain"}},
		{input: "terrain.main.add1", want: []string{"terrain", "main", "add1"}},
		{input: "noise-graph.main.make_Position", want: []string{"noise-graph", "main", "make_Position"}},
		{input: "terrain.main.mix.mix_Add", want: []string{"terrain", "main", "mix", "mix_Add"}},
		{input: "", wantReason: "empty address"},
		{input: "a..b", wantOffset: 2, wantReason: "empty name"},
		{input: "a.b.", wantOffset: 4, wantReason: "empty name"},
		{input: ".a", wantOffset: 0, wantReason: "empty name"},
		{input: "a.-b", wantOffset: 2, wantReason: `unexpected '-'`},
		{input: "a.b-.c", wantOffset: 3, wantReason: "ends with a hyphen"},
		{input: "a.b[0]", wantOffset: 3, wantReason: `unexpected '['`},
		{input: "a.b:Value", wantOffset: 3, wantReason: `unexpected ':'`},
		{input: "a b", wantOffset: 1, wantReason: `unexpected ' '`},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			addr, err := Parse(tc.input)
			if tc.wantReason != "" {
				var syntaxErr *SyntaxError
				require.ErrorAs(t, err, &syntaxErr)
				assert.Equal(t, tc.wantOffset, syntaxErr.Offset)
				assert.Contains(t, syntaxErr.Reason, tc.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, addr.Names())
			assert.Equal(t, tc.input, addr.String())
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a..b") })
}

func TestParseParameterPath(t *testing.T) {
	testCases := []struct {
		input      string
		want       ParameterPath
		wantOffset int
		wantErr    string
	}{
		{input: "box", want: ParameterPath{Root: "box"}},
		{
			input: "caller.main.box",
			want:  ParameterPath{Root: "caller", Frames: []Frame{{"caller", "main", "box"}}},
		},
		{
			input: "scene.main.rock.rock.main.pebble",
			want: ParameterPath{Root: "scene", Frames: []Frame{
				{"scene", "main", "rock"},
				{"rock", "main", "pebble"},
			}},
		},
		{input: "caller.main", wantOffset: 11, wantErr: "asset.terminal.node"},
		{input: "caller.main.box.box", wantOffset: 16, wantErr: "asset.terminal.node"},
		{input: "caller..box", wantOffset: 7, wantErr: "empty name"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			p, err := ParseParameterPath(tc.input)
			if tc.wantErr != "" {
				var syntaxErr *SyntaxError
				require.ErrorAs(t, err, &syntaxErr)
				assert.Equal(t, tc.wantOffset, syntaxErr.Offset)
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, p)
			assert.Equal(t, tc.input, p.String())
			assert.Equal(t, p.IsRoot(), p.Address() == nil)
		})
	}
}

func TestParameterPath_AddressMatchesCallSite(t *testing.T) {
	site := New("caller", "main", "box").Join(New("box", "main", "inner"))
	p, err := ParseParameterPath(site.String())
	require.NoError(t, err)
	assert.True(t, site.Equal(p.Address()))
	assert.Equal(t, "caller", p.Root)
}
