package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name string
		addr *Address
		want string
	}{
		{name: "node", addr: New("terrain", "main", "add1"), want: "terrain.main.add1"},
		{name: "expanded node", addr: New("terrain", "main", "mix", "mix_Add"), want: "terrain.main.mix.mix_Add"},
		{name: "inside a called graph", addr: New("caller", "main", "box").Join(New("box", "main", "root")), want: "caller.main.box.box.main.root"},
		{name: "nil", addr: nil, want: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.addr.String())
		})
	}
}

func TestAddress_Equal(t *testing.T) {
	a := New("terrain", "main", "s")
	assert.True(t, a.Equal(MustParse("terrain.main.s")))
	assert.False(t, a.Equal(New("terrain", "main", "t")))
	assert.False(t, a.Equal(New("terrain", "main")))
	assert.False(t, a.Equal(nil))
	assert.False(t, (*Address)(nil).Equal(a))
	assert.True(t, (*Address)(nil).Equal(nil))
}

func TestAddress_DerivationsCopy(t *testing.T) {
	base := New("terrain", "main")
	child := base.Child("lerp1")
	assert.Equal(t, "terrain.main.lerp1", child.String())
	assert.Equal(t, "terrain.main", base.String())
	assert.Equal(t, "lerp1", child.Last())
	assert.Equal(t, "", (*Address)(nil).Last())

	var root *Address
	site := root.Join(New("caller", "main", "box"))
	assert.Equal(t, 3, site.Len())
	nested := site.Join(New("box", "main", "root"))
	assert.Equal(t, 6, nested.Len())
	assert.Equal(t, 3, site.Len())

	names := nested.Names()
	names[0] = "changed"
	assert.Equal(t, "caller", nested.Names()[0])

	src := []string{"a", "b"}
	addr := New(src...)
	src[0] = "z"
	assert.Equal(t, "a.b", addr.String())
}
