package graphir

import (
	"fmt"
	"slices"
)

// MakeLink connects an output pin to an input pin. Inputs accept a single
// link; linking an already linked input is a compiler bug.
func (g *Graph) MakeLink(out, in *Pin) {
	switch {
	case !out.IsOutput() || !in.IsInput():
		panic(fmt.Sprintf("graphir: link %s -> %s must go from an output to an input", out, in))
	case out.node == nil || in.node == nil || out.node.graph != g || in.node.graph != g:
		panic(fmt.Sprintf("graphir: link %s -> %s crosses graphs", out, in))
	case len(in.links) != 0:
		panic(fmt.Sprintf("graphir: input %s is already linked to %s", in, in.links[0]))
	case slices.Contains(out.links, in):
		panic(fmt.Sprintf("graphir: link %s -> %s already exists", out, in))
	}
	out.links = append(out.links, in)
	in.links = append(in.links, out)
}

// BreakLink removes the link between two pins if it exists.
func (g *Graph) BreakLink(a, b *Pin) {
	a.links = slices.DeleteFunc(a.links, func(p *Pin) bool { return p == b })
	b.links = slices.DeleteFunc(b.links, func(p *Pin) bool { return p == a })
}

// BreakAllLinks removes every link of p.
func (p *Pin) BreakAllLinks() {
	for _, other := range p.links {
		other.links = slices.DeleteFunc(other.links, func(q *Pin) bool { return q == p })
	}
	p.links = nil
}

// RerouteConsumers moves every consumer of the output pin from to the
// output pin to, preserving order.
func (g *Graph) RerouteConsumers(from, to *Pin) {
	consumers := from.Links()
	from.BreakAllLinks()
	for _, c := range consumers {
		g.MakeLink(to, c)
	}
}

// Splice wires the source of an input pin straight into every consumer of
// an output pin. When the input is not linked, consumers receive its default
// value instead. Both pins end up unlinked.
func (g *Graph) Splice(in, out *Pin) {
	src := in.Source()
	consumers := out.Links()
	in.BreakAllLinks()
	out.BreakAllLinks()
	for _, c := range consumers {
		if src != nil {
			g.MakeLink(src, c)
		} else {
			c.Default = in.Default
		}
	}
}
