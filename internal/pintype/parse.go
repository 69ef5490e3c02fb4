package pintype

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Parse reads a type from its textual form: `float`, `buffer(vector)`,
// `array(float)`, `object(Mesh)`, `object` or `wildcard`.
func Parse(src string) (Type, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<type>", hcl.InitialPos)
	if diags.HasErrors() {
		return Type{}, fmt.Errorf("invalid type %q: %w", src, diags)
	}
	return ParseExpr(expr)
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Type {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseExpr converts an HCL type expression into a Type. Quoted strings are
// accepted too, so both `type = buffer(float)` and `type = "buffer(float)"`
// work in authoring files.
func ParseExpr(expr hcl.Expression) (Type, error) {
	if expr == nil {
		return Wildcard(), nil
	}

	switch v := expr.(type) {
	case *hclsyntax.TemplateExpr:
		if len(v.Parts) == 1 {
			if lit, ok := v.Parts[0].(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
				return Parse(lit.Val.AsString())
			}
		}
		return Type{}, fmt.Errorf("type strings must be plain literals")

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return Type{}, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		return keyword(v.Traversal.RootName())

	case *hclsyntax.FunctionCallExpr:
		if len(v.Args) != 1 {
			return Type{}, fmt.Errorf("type constructor %s() requires exactly one argument, got %d", v.Name, len(v.Args))
		}
		arg, ok := v.Args[0].(*hclsyntax.ScopeTraversalExpr)
		if !ok || len(arg.Traversal) != 1 {
			return Type{}, fmt.Errorf("the argument to %s() must be a single identifier", v.Name)
		}
		name := arg.Traversal.RootName()

		if v.Name == "object" {
			return Object(name), nil
		}
		inner, ok := InnerByName(name)
		if !ok {
			return Type{}, fmt.Errorf("unknown element type %q in %s()", name, v.Name)
		}
		switch v.Name {
		case "buffer":
			return Buffer(inner), nil
		case "array":
			return BufferArray(inner), nil
		default:
			return Type{}, fmt.Errorf("unknown type constructor function %q", v.Name)
		}

	default:
		return Type{}, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

func keyword(name string) (Type, error) {
	switch name {
	case "wildcard":
		return Wildcard(), nil
	case "object":
		return Object(""), nil
	}
	if inner, ok := InnerByName(name); ok {
		return Scalar(inner), nil
	}
	return Type{}, fmt.Errorf("unknown type %q", name)
}
