package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/node"
)

// Validate performs a strict parity check between specs and compute
// functions: every output pin of every non-template spec must be computable
// and every compute function must belong to a declared output.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, typ := range r.Types() {
		spec := r.specs[typ]
		if spec.IsTemplate() {
			for key := range r.compute {
				if key.Type == typ {
					errs = append(errs, fmt.Sprintf("node '%s': template nodes are expanded at compile time but a compute function is registered for '%s'", typ, key.Pin))
				}
			}
			continue
		}
		if _, ok := r.compute[computeKey{Type: typ, Pin: AnyOutput}]; ok {
			continue
		}
		for _, pin := range spec.OutputNames() {
			if _, ok := r.compute[computeKey{Type: typ, Pin: pin}]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': output '%s' has no compute function", typ, pin))
			}
		}
		if len(spec.OutputNames()) == 0 && spec.Binding == node.BindNone && !spec.Queryable {
			logger.Warn("Node type declares no outputs and is not queryable; it will always be pruned.", "type", typ)
		}
	}

	for key := range r.compute {
		spec, ok := r.specs[key.Type]
		if !ok {
			errs = append(errs, fmt.Sprintf("compute function registered for unknown node type '%s'", key.Type))
			continue
		}
		if key.Pin == AnyOutput {
			continue
		}
		if !hasOutput(spec, key.Pin) {
			errs = append(errs, fmt.Sprintf("node '%s': compute function registered for undeclared output '%s'", key.Type, key.Pin))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "node_types", len(r.specs), "compute_functions", len(r.compute))
	return nil
}

func hasOutput(spec *node.Spec, pin string) bool {
	for _, name := range spec.OutputNames() {
		if name == pin {
			return true
		}
	}
	return false
}
