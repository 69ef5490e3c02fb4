package serialized

import (
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinNode(name string) *Node {
	n := &Node{Name: name}
	n.AddPin(&Pin{Name: "In", Direction: node.Input, Type: pintype.Float})
	n.AddPin(&Pin{Name: "Out", Direction: node.Output, Type: pintype.Float})
	return n
}

func TestGraph_Link(t *testing.T) {
	g := NewGraph("terrain", "main", uuid.Nil)
	g.AddNode(pinNode("a"))
	g.AddNode(pinNode("b"))

	require.NoError(t, g.Link(PinRef{"a", "Out"}, PinRef{"b", "In"}))

	a, _ := g.Node("a")
	b, _ := g.Node("b")
	out, _ := a.Pin("Out")
	in, _ := b.Pin("In")
	assert.Equal(t, []PinRef{{"b", "In"}}, out.LinkedTo)
	assert.Equal(t, []PinRef{{"a", "Out"}}, in.LinkedTo)

	tests := []struct {
		name     string
		from, to PinRef
		wantErr  string
	}{
		{"double link", PinRef{"a", "Out"}, PinRef{"b", "In"}, "already linked"},
		{"unknown node", PinRef{"x", "Out"}, PinRef{"a", "In"}, `unknown node "x"`},
		{"unknown pin", PinRef{"a", "Nope"}, PinRef{"a", "In"}, `no pin "Nope"`},
		{"wrong direction", PinRef{"a", "In"}, PinRef{"b", "Out"}, "is not an output"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Link(tc.from, tc.to)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGraph_OrderAndDiagnostics(t *testing.T) {
	g := NewGraph("terrain", "main", uuid.Nil)
	for _, name := range []string{"z", "a", "m"} {
		n := pinNode(name)
		n.Diagnostics = n.Diagnostics.Append(diag.Warningf(g.Address().Child(name), "", "note %s", name))
		g.AddNode(n)
	}
	g.Diagnostics = g.Diagnostics.Append(diag.Errorf(g.Address(), "", "graph level"))

	var names []string
	for _, n := range g.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)

	all := g.AllDiagnostics()
	require.Len(t, all, 4)
	assert.Equal(t, "graph level", all[0].Summary)
	assert.Equal(t, "terrain.main.z", all[1].Location())
	assert.True(t, all.HasErrors())

	assert.Panics(t, func() { g.AddNode(pinNode("a")) })
}
