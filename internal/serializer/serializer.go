package serializer

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/specialistvlad/voxelflow/internal/corenodes"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/serialized"
)

// Serializer produces serialized graphs from a library.
type Serializer struct {
	reg *registry.Registry
	lib *model.Library
}

// New creates a Serializer.
func New(reg *registry.Registry, lib *model.Library) *Serializer {
	return &Serializer{reg: reg, lib: lib}
}

// Serialize snapshots one terminal of an asset.
func (s *Serializer) Serialize(ctx context.Context, assetName, terminalName string) (*serialized.Graph, error) {
	live, ok := s.lib.Asset(assetName)
	if !ok {
		return nil, fmt.Errorf("unknown asset %q", assetName)
	}
	asset, rev := live.Snapshot()
	term, ok := asset.Terminal(terminalName)
	if !ok {
		return nil, fmt.Errorf("asset %q has no terminal %q", assetName, terminalName)
	}

	logger := ctxlog.FromContext(ctx)

	g := serialized.NewGraph(asset.Name, term.Name, term.Guid)
	g.Function = term.Function
	g.Revision = rev
	g.Parameters = s.parameterTable(asset)
	if term.Function {
		g.Inputs = append(g.Inputs, term.Inputs...)
	}
	g.Inputs = append(g.Inputs, asset.Inputs...)
	g.Outputs = term.Outputs
	g.MakeNodes = corenodes.MakeNodes()
	g.BreakNodes = corenodes.BreakNodes()

	b := &build{
		s:      s,
		asset:  asset,
		term:   term,
		graph:  g,
		byName: make(map[string]*builder),
	}
	for _, n := range term.Nodes {
		if _, dup := b.byName[n.Name]; dup {
			g.Diagnostics = g.Diagnostics.Append(diag.Errorf(g.Address().Child(n.Name), "", "node %q is defined more than once", n.Name))
			continue
		}
		nb := b.instantiate(n)
		b.nodes = append(b.nodes, nb)
		b.byName[n.Name] = nb
	}
	for _, nb := range b.nodes {
		b.assign(nb)
	}
	b.infer()
	b.applyLiterals()
	b.emit()

	logger.Debug("Serialized terminal graph.", "nodes", g.Len(), "revision", rev, "diagnostics", len(g.AllDiagnostics()))
	return g, nil
}

// parameterTable merges the parameters of the asset and its bases. Derived
// assets override the defaults of parameters they redeclare.
func (s *Serializer) parameterTable(asset *model.Asset) []*model.Declaration {
	out := slices.Clone(asset.Parameters)
	for _, base := range s.lib.BaseChain(asset.Name)[1:] {
		snap, _ := base.Snapshot()
		for _, d := range snap.Parameters {
			if _, seen := model.FindDecl(out, d.Guid); !seen {
				out = append(out, d)
			}
		}
	}
	return out
}

// calleeDeclarations returns the inputs and outputs a CallGraph node
// exposes for another asset.
func (s *Serializer) calleeDeclarations(assetName string) (*model.Asset, *model.Terminal, error) {
	live, ok := s.lib.Asset(assetName)
	if !ok {
		return nil, nil, fmt.Errorf("graph %q is not loaded", assetName)
	}
	snap, _ := live.Snapshot()
	main, ok := snap.MainTerminal()
	if !ok {
		return nil, nil, fmt.Errorf("graph %q has no main terminal", assetName)
	}
	return snap, main, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func isOutput(p *node.Pin) bool { return p.Decl.Direction == node.Output }
