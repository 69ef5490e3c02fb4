package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/hcl_adapter"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/modules/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func testRegistry() *registry.Registry {
	return registry.New(&corenodes.Module{}, &math.Module{})
}

func loadLibrary(t *testing.T, src string) *model.Library {
	t.Helper()
	lib, err := hcl_adapter.NewLoader().LoadSource(context.Background(), []byte(src), "test.hcl")
	require.NoError(t, err)
	return lib
}

// asset wraps terminal nodes into an asset named "test".
func asset(body string) string {
	return `
asset "test" {
  parameter "height" {
    type    = float
    default = 10
  }
  input "g" {
    type    = float
    default = 1
  }
  input "points" {
    type = buffer(vector)
  }
  input "origin" {
    type = buffer(vector)
  }
  input "position" {
    type = vector
  }
  input "weights" {
    type = buffer(float)
  }

  terminal "main" {
` + body + `
  }
}
`
}

func lower(t *testing.T, body string, opts ...Option) (*Lowered, diag.Diagnostics, error) {
	t.Helper()
	sink := &diag.Collector{}
	c := New(testRegistry(), loadLibrary(t, asset(body)), append(opts, WithSink(sink))...)
	l, err := c.Lower(context.Background(), "test", "main")
	return l, sink.Diagnostics(), err
}

func mustLower(t *testing.T, body string, opts ...Option) *Lowered {
	t.Helper()
	l, diags, err := lower(t, body, opts...)
	require.NoError(t, err, "diagnostics: %v", diags)
	return l
}

func mustNode(t *testing.T, g *graphir.Graph, id string) *graphir.Node {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %q not in graph", id)
	return n
}

func sourceOf(t *testing.T, g *graphir.Graph, id, pin string) *graphir.Pin {
	t.Helper()
	src := mustNode(t, g, id).MustPin(pin).Source()
	require.NotNil(t, src, "%s:%s is not linked", id, pin)
	return src
}

func typesOf(g *graphir.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.Type())
	}
	return out
}

func errorsAt(diags diag.Diagnostics, summary string) []string {
	var out []string
	for _, d := range diags.Errors() {
		if strings.Contains(d.Summary, summary) {
			out = append(out, d.Node.String())
		}
	}
	return out
}

func TestCompile_CollapsesInputsKeepingDefaultPin(t *testing.T) {
	l := mustLower(t, `
    output "a" { type = float }
    output "b" { type = float }
    node "Input" "first" {
      properties = { input = "g" }
    }
    node "Input" "second" {
      properties = { input = "g" }
      Default    = 5
    }
    node "Output" "out_a" {
      properties = { output = "a" }
      Value      = node.first.Value
    }
    node "Output" "out_b" {
      properties = { output = "b" }
      Value      = node.second.Value
    }
`)
	g := l.Graph
	_, ok := g.Node("first")
	assert.False(t, ok, "the input without a Default pin is merged away")

	second := mustNode(t, g, "second")
	assert.Equal(t, second.MustPin(corenodes.PinValue), sourceOf(t, g, "out_a", corenodes.PinValue))
	assert.Equal(t, second.MustPin(corenodes.PinValue), sourceOf(t, g, "out_b", corenodes.PinValue))
	assert.Len(t, g.NodesWhere(bound(node.BindInput)), 1)
}

func TestCompile_ReportsEveryNodeOfALoop(t *testing.T) {
	l, diags, err := lower(t, `
    output "v" { type = float }
    node "Add" "a" {
      Values_0 = node.c.Result
      Values_1 = 1
    }
    node "Add" "b" {
      Values_0 = node.a.Result
      Values_1 = 1
    }
    node "Add" "c" {
      Values_0 = node.b.Result
      Values_1 = 1
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.c.Result
    }
`)
	require.ErrorIs(t, err, ErrCompilationFailed)
	assert.Nil(t, l)
	assert.ElementsMatch(t, []string{"test.main.a", "test.main.b", "test.main.c"}, errorsAt(diags, "part of a loop"))
}

func TestCompile_InsertsToBufferForScalarIntoBuffer(t *testing.T) {
	l := mustLower(t, `
    output "d" { type = buffer(float) }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Output" "out" {
      properties = { output = "d" }
      Value      = node.p.Value
    }
`)
	g := l.Graph
	conv := sourceOf(t, g, "out", corenodes.PinValue).Node()
	assert.Equal(t, corenodes.TypeToBuffer, conv.Type())
	assert.Equal(t, pintype.Buffer(pintype.InnerFloat), conv.MustPin(corenodes.PinBuffer).Type)
	assert.Equal(t, mustNode(t, g, "p").MustPin(corenodes.PinValue), conv.MustPin(corenodes.PinValue).Source())
}

func TestCompile_MixedBufferAndScalarLinksIgnoreOrder(t *testing.T) {
	testCases := []struct {
		name          string
		first, second string
		scalarPin     string
	}{
		{name: "buffer first", first: "node.w.Value", second: "node.p.Value", scalarPin: "Values_1"},
		{name: "scalar first", first: "node.p.Value", second: "node.w.Value", scalarPin: "Values_0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := mustLower(t, `
    output "d" { type = buffer(float) }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Input" "w" {
      properties = { input = "weights" }
    }
    node "Add" "sum" {
      Values_0 = `+tc.first+`
      Values_1 = `+tc.second+`
    }
    node "Output" "out" {
      properties = { output = "d" }
      Value      = node.sum.Result
    }
`)
			g := l.Graph
			sum := mustNode(t, g, "sum")
			for _, pin := range []string{"Values_0", "Values_1", "Result"} {
				assert.Equal(t, pintype.Buffer(pintype.InnerFloat), sum.MustPin(pin).Type, pin)
			}
			conv := sourceOf(t, g, "sum", tc.scalarPin).Node()
			assert.Equal(t, corenodes.TypeToBuffer, conv.Type())
			assert.Equal(t, mustNode(t, g, "p").MustPin(corenodes.PinValue), conv.MustPin(corenodes.PinValue).Source())
		})
	}
}

func TestCompile_ExpandsPromotedTemplateWithoutExtraHops(t *testing.T) {
	l := mustLower(t, `
    output "d" { type = buffer(float) }
    node "Input" "pts" {
      properties = { input = "points" }
    }
    node "Input" "org" {
      properties = { input = "origin" }
    }
    node "Distance" "dist" {
      A = node.pts.Value
      B = node.org.Value
    }
    node "Output" "out" {
      properties = { output = "d" }
      Value      = node.dist.Distance
    }
`)
	g := l.Graph
	types := typesOf(g)
	assert.NotContains(t, types, math.TypeDistance)
	assert.NotContains(t, types, corenodes.TypePassthrough)

	length := sourceOf(t, g, "out", corenodes.PinValue).Node()
	assert.Equal(t, math.TypeLength, length.Type())
	assert.Equal(t, pintype.Buffer(pintype.InnerFloat), length.MustPin("Result").Type)

	diff := length.MustPin("Value").Source().Node()
	assert.Equal(t, math.TypeSubtract, diff.Type())
	assert.Equal(t, pintype.Buffer(pintype.InnerVector), diff.MustPin("A").Type)

	pts := mustNode(t, g, "pts").MustPin(corenodes.PinValue)
	org := mustNode(t, g, "org").MustPin(corenodes.PinValue)
	assert.Equal(t, []*graphir.Pin{diff.MustPin("B")}, pts.Links())
	assert.Equal(t, []*graphir.Pin{diff.MustPin("A")}, org.Links())
}

func TestCompile_ExpandsNestedArithmetic(t *testing.T) {
	l := mustLower(t, `
    output "v" { type = float }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Lerp" "mix" {
      A     = 1
      B     = node.p.Value
      Alpha = 0.25
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.mix.Result
    }
`)
	types := typesOf(l.Graph)
	assert.NotContains(t, types, math.TypeLerp)
	assert.Contains(t, types, math.TypeSubtract)
	assert.Contains(t, types, math.TypeMultiply)
	assert.Contains(t, types, math.TypeAdd)

	sum := sourceOf(t, l.Graph, "out", corenodes.PinValue).Node()
	require.Equal(t, math.TypeAdd, sum.Type())
	a := sum.MustPin("Values_0")
	assert.False(t, a.IsLinked())
	assert.True(t, a.Default.RawEquals(cty.NumberFloatVal(1)), "unlinked template inputs pass their default through")
}

func TestCompile_RemovesLocalVariables(t *testing.T) {
	const decl = `
    output "v" { type = float }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "LocalVariableDeclaration" "decl" {
      properties = { name = "h" }
      Value      = node.p.Value
    }
`
	testCases := []struct {
		name  string
		body  string
		reads map[string][]string
	}{
		{
			name: "no usages",
			body: `
    node "Sqrt" "root" {
      Value = node.p.Value
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.root.Result
    }
`,
			reads: map[string][]string{"root": {"Value"}},
		},
		{
			name: "one usage read twice",
			body: `
    node "LocalVariableUsage" "use" {
      properties = { name = "h" }
    }
    node "Add" "sum" {
      Values_0 = node.use.Value
      Values_1 = node.use.Value
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.sum.Result
    }
`,
			reads: map[string][]string{"sum": {"Values_0", "Values_1"}},
		},
		{
			name: "several usages",
			body: `
    node "LocalVariableUsage" "u1" {
      properties = { name = "h" }
    }
    node "LocalVariableUsage" "u2" {
      properties = { name = "h" }
    }
    node "LocalVariableUsage" "u3" {
      properties = { name = "h" }
    }
    node "Sqrt" "root" {
      Value = node.u1.Value
    }
    node "Multiply" "prod" {
      Values_0 = node.u2.Value
      Values_1 = node.u3.Value
      Values_2 = node.root.Result
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.prod.Result
    }
`,
			reads: map[string][]string{"root": {"Value"}, "prod": {"Values_0", "Values_1"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := mustLower(t, decl+tc.body).Graph
			p := mustNode(t, g, "p").MustPin(corenodes.PinValue)
			for id, pins := range tc.reads {
				for _, pin := range pins {
					assert.Equal(t, p, sourceOf(t, g, id, pin), "%s:%s", id, pin)
				}
			}
			types := typesOf(g)
			assert.NotContains(t, types, corenodes.TypeLocalVariableUsage)
			assert.NotContains(t, types, corenodes.TypeLocalVariableDeclaration)
			assert.NotPanics(t, g.Check)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
		at   string
	}{
		{
			name: "undeclared local variable",
			body: `
    output "v" { type = float }
    node "LocalVariableUsage" "use" {
      properties = { name = "missing" }
      promote    = { Value = float }
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.use.Value
    }`,
			want: `local variable "missing" is not declared`,
			at:   "test.main.use",
		},
		{
			name: "unlinked output",
			body: `
    output "v" { type = float }
    node "Output" "out" {
      properties = { output = "v" }
    }`,
			want: "pin must be linked",
			at:   "test.main.out",
		},
		{
			name: "output published twice",
			body: `
    output "v" { type = float }
    node "Output" "one" {
      properties = { output = "v" }
      Value      = 1
    }
    node "Output" "two" {
      properties = { output = "v" }
      Value      = 2
    }`,
			want: `output "v" is already published by one`,
			at:   "test.main.two",
		},
		{
			name: "undeclared parameter",
			body: `
    output "v" { type = float }
    node "Parameter" "p" {
      properties = { parameter = "nope" }
      promote    = { Value = float }
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.p.Value
    }`,
			want: `parameter "nope" is not declared`,
			at:   "test.main.p",
		},
		{
			name: "uninferable wildcard feeding an output",
			body: `
    output "v" { type = float }
    node "Zero" "z" {}
    node "Length" "len" {
      Value = node.z.Value
    }
    node "Output" "out" {
      properties = { output = "v" }
      Value      = node.len.Result
    }`,
			want: "pin type cannot be inferred",
			at:   "test.main.z",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, diags, err := lower(t, tc.body)
			require.ErrorIs(t, err, ErrCompilationFailed)
			assert.Nil(t, l)
			assert.Contains(t, errorsAt(diags, tc.want), tc.at, "diagnostics: %v", diags)
		})
	}
}

func TestCompile_DeadWildcardsOnlyWarn(t *testing.T) {
	l, diags, err := lower(t, `
    output "v" { type = float }
    node "Add" "orphan" {}
    node "Output" "out" {
      properties = { output = "v" }
      Value      = 3
    }
`)
	require.NoError(t, err)
	_, ok := l.Graph.Node("orphan")
	assert.False(t, ok, "dead nodes are pruned")
	assert.False(t, diags.HasErrors())
	assert.NotEmpty(t, diags, "the orphan's wildcards are still reported")
}

func TestCompile_SplitPins(t *testing.T) {
	l := mustLower(t, `
    output "a" { type = float }
    output "b" { type = float }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Input" "pos" {
      properties = { input = "position" }
    }
    node "Length" "len" {
      promote = { Value = vector }
      pin "Value" {
        X = node.p.Value
        Y = 2
      }
    }
    node "Add" "sum" {
      Values_0 = node.pos.Value.X
      Values_1 = node.pos.Value.Y
    }
    node "Output" "out_a" {
      properties = { output = "a" }
      Value      = node.len.Result
    }
    node "Output" "out_b" {
      properties = { output = "b" }
      Value      = node.sum.Result
    }
`)
	g := l.Graph

	mk := sourceOf(t, g, "len", "Value").Node()
	assert.Equal(t, corenodes.TypeMakeVector, mk.Type())
	assert.Equal(t, mustNode(t, g, "p").MustPin(corenodes.PinValue), mk.MustPin("X").Source())
	assert.True(t, mk.MustPin("Y").Default.RawEquals(cty.NumberFloatVal(2)))

	brk := sourceOf(t, g, "sum", "Values_0").Node()
	assert.Equal(t, corenodes.TypeBreakVector, brk.Type())
	assert.Same(t, brk, sourceOf(t, g, "sum", "Values_1").Node(), "members of one pin share a break node")
	assert.Equal(t, "Y", sourceOf(t, g, "sum", "Values_1").Name)

	for _, n := range g.Nodes() {
		for _, p := range n.Pins() {
			assert.Empty(t, p.Parent, "sub-pin %s survived", p)
		}
	}
}

const twoOutputs = `
    output "a" { type = float }
    output "b" { type = float }
    node "Parameter" "p" {
      properties = { parameter = "height" }
    }
    node "Sqrt" "root" {
      Value = node.p.Value
    }
    node "Output" "out_a" {
      properties = { output = "a" }
      Value      = node.root.Result
    }
    node "Output" "out_b" {
      properties = { output = "b" }
      Value      = 4
    }
`

func TestCarve(t *testing.T) {
	l := mustLower(t, twoOutputs)
	a, _ := model.FindDeclByName(l.Outputs, "a")
	b, _ := model.FindDeclByName(l.Outputs, "b")

	ca, err := Carve(l, a.Guid)
	require.NoError(t, err)
	assert.Equal(t, "out_a", ca.Root.ID)
	assert.Equal(t, graphir.KindRoot, ca.Root.Kind)
	assert.Equal(t, corenodes.PinValue, ca.Pin)
	assert.ElementsMatch(t, []string{"Parameter", "Sqrt", "Output"}, typesOf(ca.Graph))

	cb, err := Carve(l, b.Guid)
	require.NoError(t, err)
	assert.Equal(t, 1, cb.Graph.Len())

	assert.Equal(t, 4, l.Graph.Len(), "carving works on a copy")

	_, err = Carve(l, model.GuidFor("nothing"))
	assert.ErrorIs(t, err, ErrOutputNotBound)
}

func TestPreviewTap(t *testing.T) {
	addr := &PinAddress{Asset: "test", Terminal: "main", Node: "root", Pin: "Result"}
	l := mustLower(t, twoOutputs, WithOptions(Options{PreviewPin: addr}))

	ids := Previews(l)
	require.Len(t, ids, 1)
	preview := mustNode(t, l.Graph, ids[0])
	assert.Equal(t, pintype.Float, preview.MustPin(corenodes.PinIn).Type)
	assert.Equal(t, preview.MustPin(corenodes.PinOut), sourceOf(t, l.Graph, "out_a", corenodes.PinValue))

	c, err := CarveNode(l, ids[0])
	require.NoError(t, err)
	assert.Equal(t, corenodes.PinIn, c.Pin)
	assert.ElementsMatch(t, []string{"Parameter", "Sqrt", "Preview"}, typesOf(c.Graph))
}

func TestOptions_StopAfter(t *testing.T) {
	l := mustLower(t, `
    output "d" { type = buffer(float) }
    node "Input" "pts" {
      properties = { input = "points" }
    }
    node "Distance" "dist" {
      A = node.pts.Value
    }
    node "Output" "out" {
      properties = { output = "d" }
      Value      = node.dist.Distance
    }
`, WithOptions(Options{StopAfter: "ReplaceTemplates"}))
	assert.Contains(t, typesOf(l.Graph), corenodes.TypePassthrough)

	_, _, err := lower(t, `node "Add" "x" {}`, WithOptions(Options{StopAfter: "Nope"}))
	assert.ErrorContains(t, err, `unknown pass "Nope"`)
}

func TestCompiler_CachesPerRevision(t *testing.T) {
	ctx := context.Background()
	lib := loadLibrary(t, asset(twoOutputs))
	sink := &diag.Collector{}
	c := New(testRegistry(), lib, WithSink(sink))

	first, err := c.Lower(ctx, "test", "main")
	require.NoError(t, err)
	again, err := c.Lower(ctx, "test", "main")
	require.NoError(t, err)
	assert.Same(t, first, again)

	a, _ := lib.Asset("test")
	require.NoError(t, a.RemoveNode(model.MainTerminal, "out_b"))
	changed, err := c.Lower(ctx, "test", "main")
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.Equal(t, a.Revision(), changed.Revision)

	c.Forget("test")
	forgotten, err := c.Lower(ctx, "test", "main")
	require.NoError(t, err)
	assert.NotSame(t, changed, forgotten)

	broken := New(testRegistry(), loadLibrary(t, asset(`
    output "v" { type = float }
    node "Output" "out" {
      properties = { output = "v" }
    }`)), WithSink(sink))
	sink.Reset()
	_, err = broken.Lower(ctx, "test", "main")
	require.Error(t, err)
	reported := len(sink.Diagnostics())
	_, err = broken.Lower(ctx, "test", "main")
	require.Error(t, err)
	assert.Equal(t, reported, len(sink.Diagnostics()), "a cached failure is not reported again")
}

func TestDump(t *testing.T) {
	l := mustLower(t, twoOutputs)
	out := string(Dump(l.Graph))
	assert.Contains(t, out, `node "Sqrt" "root" {`)
	assert.Contains(t, out, `pin "Value" {`)
	assert.Contains(t, out, "node.p.Value")
	assert.Contains(t, out, `"test.main.root"`)
}

func TestPassNames(t *testing.T) {
	names := PassNames()
	assert.Equal(t, "Load", names[0])
	assert.Less(t, indexOf(names, "RemoveSplitPins"), indexOf(names, "AddNoDefaultErrors"))
	assert.Less(t, indexOf(names, "RemoveLocalVariables"), indexOf(names, "CollapseInputs"))
	assert.Less(t, indexOf(names, "ReplaceTemplates"), indexOf(names, "RemovePassthroughs"))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestParsePinAddress(t *testing.T) {
	addr, err := ParsePinAddress("terrain.main.sum:Result")
	require.NoError(t, err)
	assert.Equal(t, PinAddress{Asset: "terrain", Terminal: "main", Node: "sum", Pin: "Result"}, addr)
	assert.Equal(t, "terrain.main.sum:Result", addr.String())

	for _, bad := range []string{"terrain.main.sum", "terrain.sum:Result", "terrain..sum:Result", "a.b.c:"} {
		_, err := ParsePinAddress(bad)
		assert.Error(t, err, bad)
	}
}
