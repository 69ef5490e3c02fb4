package expr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/singleflight"
)

const (
	varValues   = "values"
	varPosition = "position"
)

var errNoExpression = errors.New("expression property is empty")

// programCache compiles each distinct expression once. Programs are safe
// for concurrent evaluation.
type programCache struct {
	env    *cel.Env
	envErr error
	flight singleflight.Group

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func newProgramCache() *programCache {
	env, err := cel.NewEnv(
		cel.Variable(varValues, cel.ListType(cel.DoubleType)),
		cel.Variable(varPosition, cel.ListType(cel.DoubleType)),
	)
	return &programCache{
		env:      env,
		envErr:   err,
		programs: make(map[string]cel.Program),
	}
}

func (c *programCache) get(src string) (cel.Program, error) {
	if c.envErr != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", c.envErr)
	}
	c.mu.RLock()
	prg, ok := c.programs[src]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}
	v, err, _ := c.flight.Do(src, func() (any, error) {
		ast, iss := c.env.Compile(src)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile error: %w", iss.Err())
		}
		if !isNumeric(ast.OutputType()) {
			return nil, fmt.Errorf("expression returns %s, want a number or bool", ast.OutputType())
		}
		prg, err := c.env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program error: %w", err)
		}
		c.mu.Lock()
		c.programs[src] = prg
		c.mu.Unlock()
		return prg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(cel.Program), nil
}

var numericTypes = []*cel.Type{cel.DoubleType, cel.IntType, cel.UintType, cel.BoolType, cel.DynType}

func isNumeric(t *cel.Type) bool {
	for _, n := range numericTypes {
		if t.IsExactType(n) {
			return true
		}
	}
	return false
}

func (m *Module) computeExpression(ctx context.Context, call node.Call) (cty.Value, error) {
	src := call.Node().StringProperty(PropExpression)
	if src == "" {
		return cty.NilVal, errNoExpression
	}
	prg, err := m.programs.get(src)
	if err != nil {
		return cty.NilVal, err
	}
	inputs, err := call.Variadic(ctx, pinValues)
	if err != nil {
		return cty.NilVal, err
	}
	values := make([]float64, len(inputs))
	for i, v := range inputs {
		values[i] = pintype.AsFloat(v)
	}
	position := []float64{0, 0, 0}
	if p, ok := call.QueryParameter(query.ParamPosition); ok {
		for i, attr := range []string{"x", "y", "z"} {
			if p.Type().IsObjectType() && p.Type().HasAttribute(attr) {
				position[i] = pintype.AsFloat(p.GetAttr(attr))
			}
		}
	}

	out, _, err := prg.ContextEval(ctx, map[string]any{
		varValues:   values,
		varPosition: position,
	})
	if err != nil {
		return cty.NilVal, fmt.Errorf("evaluating %q: %w", src, err)
	}
	f, err := toFloat(out)
	if err != nil {
		return cty.NilVal, fmt.Errorf("evaluating %q: %w", src, err)
	}
	return cty.NumberFloatVal(f), nil
}

func toFloat(v ref.Val) (float64, error) {
	switch v := v.(type) {
	case types.Double:
		return float64(v), nil
	case types.Int:
		return float64(v), nil
	case types.Uint:
		return float64(v), nil
	case types.Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("result of type %s is not a number", v.Type())
	}
}
