package compiler

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// ErrOutputNotBound is returned when no node publishes the requested output.
var ErrOutputNotBound = errors.New("output is not bound")

// Carved is the graph one evaluator runs: everything feeding a single root
// pin.
type Carved struct {
	Asset        string
	Terminal     string
	TerminalGuid uuid.UUID
	Graph        *graphir.Graph
	Root         *graphir.Node
	// Pin is the input pin of Root whose value is the evaluator's result.
	Pin string
}

// Carve extracts the graph computing one declared output.
func Carve(l *Lowered, output uuid.UUID) (*Carved, error) {
	g := l.Graph.Clone()
	roots := g.NodesWhere(func(n *graphir.Node) bool {
		if n.Binding() != node.BindOutput {
			return false
		}
		guid, ok := corenodes.Guid(n.Op)
		return ok && guid == output
	})
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: %s in %s.%s", ErrOutputNotBound, output, l.Asset, l.Terminal)
	}
	return carve(l, g, roots[0], corenodes.PinValue), nil
}

// CarveNode extracts the graph feeding a queryable node, such as a preview.
func CarveNode(l *Lowered, id string) (*Carved, error) {
	g := l.Graph.Clone()
	root, ok := g.Node(id)
	if !ok || root.Op == nil || !root.Op.Spec().Queryable {
		return nil, fmt.Errorf("%s.%s has no queryable node %q", l.Asset, l.Terminal, id)
	}
	ins := root.Inputs()
	if len(ins) == 0 {
		return nil, fmt.Errorf("node %q has no input to evaluate", id)
	}
	return carve(l, g, root, ins[0].Name), nil
}

// Previews lists the ids of the Preview nodes of a lowered graph.
func Previews(l *Lowered) []string {
	var ids []string
	for _, n := range l.Graph.Nodes() {
		if n.Binding() == node.BindPreview {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func carve(l *Lowered, g *graphir.Graph, root *graphir.Node, pin string) *Carved {
	disconnectVirtualPins(g)
	g.RemoveUnreached(g.Upstream(root))
	root.Kind = graphir.KindRoot
	g.Check()
	return &Carved{
		Asset:        l.Asset,
		Terminal:     l.Terminal,
		TerminalGuid: l.TerminalGuid,
		Graph:        g,
		Root:         root,
		Pin:          pin,
	}
}

func disconnectVirtualPins(g *graphir.Graph) {
	for _, n := range g.Nodes() {
		for _, p := range n.Inputs() {
			if p.Flags.Has(node.FlagVirtual) {
				p.BreakAllLinks()
			}
		}
	}
}
