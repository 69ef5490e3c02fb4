package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// translatePinAssign turns the right-hand side of a pin attribute into a
// link or a literal.
func translatePinAssign(expr hcl.Expression) (*model.PinAssign, error) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() && traversal.RootName() == "node" {
		link, err := translateLink(traversal)
		if err != nil {
			return nil, err
		}
		return &model.PinAssign{Link: link}, nil
	}
	if vars := expr.Variables(); len(vars) > 0 {
		return nil, fmt.Errorf("%s: a pin takes a literal or a single node.<name>.<pin> reference", expr.Range())
	}
	val, diags := expr.Value(evalContext)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", expr.Range(), diags)
	}
	return model.Literal(val), nil
}

func translateLink(traversal hcl.Traversal) (*model.LinkRef, error) {
	var names []string
	for _, step := range traversal[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return nil, fmt.Errorf("%s: node references only support attribute access", traversal.SourceRange())
		}
		names = append(names, attr.Name)
	}
	switch len(names) {
	case 2:
		return &model.LinkRef{Node: names[0], Pin: names[1]}, nil
	case 3:
		return &model.LinkRef{Node: names[0], Pin: names[1], Member: names[2]}, nil
	default:
		return nil, fmt.Errorf("%s: expected node.<name>.<pin> or node.<name>.<pin>.<member>", traversal.SourceRange())
	}
}

// bodyPinAssigns decodes every attribute of a body as a pin assignment.
func bodyPinAssigns(body hcl.Body) (map[string]*model.PinAssign, error) {
	out := make(map[string]*model.PinAssign)
	if body == nil {
		return out, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	for name, attr := range attrs {
		assign, err := translatePinAssign(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", name, err)
		}
		out[name] = assign
	}
	return out, nil
}

// objectAttributes evaluates an object literal and returns its attributes.
func objectAttributes(expr hcl.Expression) (map[string]cty.Value, error) {
	val, diags := expr.Value(evalContext)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("%s: expected an object, got %s", expr.Range(), val.Type().FriendlyName())
	}
	return val.AsValueMap(), nil
}

// intAttributes evaluates an object literal of whole numbers.
func intAttributes(expr hcl.Expression) (map[string]int, error) {
	attrs, err := objectAttributes(expr)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(attrs))
	for k, v := range attrs {
		var n int
		if err := gocty.FromCtyValue(v, &n); err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

type keyedExpr struct {
	Key   string
	Value hcl.Expression
}

// keyedExprs splits an object constructor into its keys and unevaluated
// value expressions, preserving source order.
func keyedExprs(expr hcl.Expression) ([]keyedExpr, error) {
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]keyedExpr, 0, len(pairs))
	for _, p := range pairs {
		k, diags := p.Key.Value(nil)
		if diags.HasErrors() || k.Type() != cty.String {
			return nil, fmt.Errorf("%s: keys must be plain names", p.Key.Range())
		}
		out = append(out, keyedExpr{Key: k.AsString(), Value: p.Value})
	}
	return out, nil
}
