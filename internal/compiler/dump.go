package compiler

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/zclconf/go-cty/cty"
)

// Dump renders a graph as HCL, one node block per node in graph order:
//
//	node "Add" "sum" {
//	  kind = "struct"
//	  ref  = "terrain.main.sum"
//	  pin "Values_0" {
//	    direction = "input"
//	    type      = "float"
//	    link      = node.a.Out
//	  }
//	}
func Dump(g *graphir.Graph) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for i, n := range g.Nodes() {
		if i > 0 {
			body.AppendNewline()
		}
		nb := body.AppendNewBlock("node", []string{n.Type(), n.ID}).Body()
		nb.SetAttributeValue("kind", cty.StringVal(n.Kind.String()))
		nb.SetAttributeValue("ref", cty.StringVal(n.Ref.String()))
		if n.Op != nil {
			for _, name := range n.Op.SortedPropertyNames() {
				v, _ := n.Op.Property(name)
				if hclsyntax.ValidIdentifier(name) && v.IsWhollyKnown() {
					nb.SetAttributeValue(name, v)
				}
			}
		}
		for _, p := range n.Pins() {
			pb := nb.AppendNewBlock("pin", []string{p.Name}).Body()
			pb.SetAttributeValue("direction", cty.StringVal(p.Direction.String()))
			pb.SetAttributeValue("type", cty.StringVal(p.Type.String()))
			if !p.IsInput() {
				continue
			}
			if src := p.Source(); src != nil {
				setLink(pb, src)
			} else if p.Default != cty.NilVal && p.Default.IsWhollyKnown() {
				pb.SetAttributeValue("default", p.Default)
			}
		}
	}
	return f.Bytes()
}

func setLink(body *hclwrite.Body, src *graphir.Pin) {
	id, pin := src.Node().ID, src.Name
	if !hclsyntax.ValidIdentifier(id) || !hclsyntax.ValidIdentifier(pin) {
		body.SetAttributeValue("link", cty.StringVal(src.String()))
		return
	}
	body.SetAttributeTraversal("link", hcl.Traversal{
		hcl.TraverseRoot{Name: "node"},
		hcl.TraverseAttr{Name: id},
		hcl.TraverseAttr{Name: pin},
	})
}
