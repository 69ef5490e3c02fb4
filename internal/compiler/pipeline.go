package compiler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/serialized"
)

type pass struct {
	name string
	run  func(s *state)
}

// passes run in order. Several of them rely on the ones before: split pins
// are gone before defaults are validated, local variables are resolved
// before inputs collapse, and templates are expanded before passthroughs
// are removed.
var passes = []pass{
	{"Load", load},
	{"AddPreviewNode", addPreviewNode},
	{"AddDebugNodes", addDebugNodes},
	{"AddRangeNodes", addRangeNodes},
	{"RemoveSplitPins", removeSplitPins},
	{"AddWildcardErrors", addWildcardErrors},
	{"AddNoDefaultErrors", addNoDefaultErrors},
	{"CheckParameters", checkParameters},
	{"CheckInputs", checkInputs},
	{"CheckOutputs", checkOutputs},
	{"AddToBuffer", addToBuffer},
	{"RemoveLocalVariables", removeLocalVariables},
	{"CollapseInputs", collapseInputs},
	{"ReplaceTemplates", replaceTemplates},
	{"RemovePassthroughs", removePassthroughs},
	{"RemoveNodesNotLinkedToQueryableNodes", removeNodesNotLinkedToQueryableNodes},
	{"CheckForLoops", checkForLoops},
	{"CheckResolved", checkResolved},
}

// PassNames lists the passes in execution order.
func PassNames() []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.name
	}
	return names
}

// run executes the pipeline over a serialized graph. It returns a nil graph
// when a pass reported an error.
func run(ctx context.Context, reg *registry.Registry, opts Options, src *serialized.Graph) (*graphir.Graph, diag.Diagnostics, error) {
	if opts.StopAfter != "" && !validPass(opts.StopAfter) {
		return nil, nil, fmt.Errorf("unknown pass %q", opts.StopAfter)
	}
	logger := ctxlog.FromContext(ctx)
	s := &state{
		ctx:    ctx,
		logger: logger,
		reg:    reg,
		opts:   opts,
		src:    src,
		base:   src.Address(),
		graph:  graphir.New(),
	}
	s.diags = s.diags.Append(src.Diagnostics...)

	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, s.diags, err
		}
		p.run(s)
		s.graph.Check()
		logger.Debug("Compiler pass finished.", "pass", p.name, "nodes", s.graph.Len(), "diagnostics", len(s.diags))
		if s.diags.HasErrors() {
			logger.Debug("Compilation stopped.", "pass", p.name, "errors", len(s.diags.Errors()))
			return nil, s.diags, nil
		}
		if p.name == opts.StopAfter {
			break
		}
	}
	return s.graph, s.diags, nil
}

func validPass(name string) bool {
	for _, p := range passes {
		if p.name == name {
			return true
		}
	}
	return false
}
