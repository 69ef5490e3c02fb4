// This file translates declaration blocks (parameters, inputs and outputs)
// and their type expressions into the model.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToPinType converts an HCL type expression into a pin type.
// Omitted types default to float.
func typeExprToPinType(ctx context.Context, expr hcl.Expression) (pintype.Type, error) {
	if !isExprDefined(ctx, expr, "type") {
		ctxlog.FromContext(ctx).Debug("Type expression is omitted, defaulting to float.")
		return pintype.Float, nil
	}
	return pintype.ParseExpr(expr)
}

// translateDeclaration processes a single parameter, input or output block,
// handling its guid, default value and type parsing. Without an explicit
// guid, scope names derive a stable one.
func translateDeclaration(ctx context.Context, b *declBlock, kind model.DeclKind, scope ...string) (*model.Declaration, error) {
	logger := ctxlog.FromContext(ctx).With("declaration", b.Name, "kind", kind)

	t, err := typeExprToPinType(ctx, b.Type)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, b.Name, err)
	}

	d := &model.Declaration{Name: b.Name, Kind: kind, Type: t, Default: cty.NilVal}
	if b.Guid != nil {
		d.Guid, err = uuid.Parse(*b.Guid)
		if err != nil {
			return nil, fmt.Errorf("%s %q: invalid guid: %w", kind, b.Name, err)
		}
	} else {
		d.Guid = model.GuidFor(append(scope, string(kind), b.Name)...)
	}
	if b.Description != nil {
		d.Tooltip = *b.Description
	}

	if isExprDefined(ctx, b.Default, "default") {
		if kind == model.DeclOutput {
			return nil, fmt.Errorf("output %q: outputs cannot declare a default", b.Name)
		}
		val, diags := b.Default.Value(evalContext)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for %s %q: %w", kind, b.Name, diags)
		}
		if d.Default, err = t.Convert(val); err != nil {
			return nil, fmt.Errorf("invalid default value for %s %q: %w", kind, b.Name, err)
		}
	}

	logger.Debug("Translated declaration.", "type", t.String(), "has_default", d.HasDefault())
	return d, nil
}

func translateDeclarations(ctx context.Context, blocks []*declBlock, kind model.DeclKind, scope ...string) ([]*model.Declaration, error) {
	out := make([]*model.Declaration, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.Name] {
			return nil, fmt.Errorf("%s %q is declared more than once", kind, b.Name)
		}
		seen[b.Name] = true
		d, err := translateDeclaration(ctx, b, kind, scope...)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
