package evaluator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/zclconf/go-cty/cty"
)

// call implements node.Call for one output of one runtime node.
type call struct {
	e   *Evaluator
	sc  Scope
	q   *query.Query
	n   *rnode
	pin string
}

var _ node.Call = (*call)(nil)

func (c *call) Node() *node.Node { return c.n.op }

func (c *call) Ref() *nodeid.Address { return c.sc.Address().Join(c.n.ref) }

func (c *call) Output() string { return c.pin }

func (c *call) PinType(pin string) pintype.Type {
	if b, ok := c.n.inputs[pin]; ok {
		return b.typ
	}
	if o, ok := c.n.outputs[pin]; ok {
		return o.typ
	}
	return pintype.Wildcard()
}

func (c *call) Input(ctx context.Context, pin string) (cty.Value, error) {
	return c.e.input(ctx, c.sc, c.q, c.n, pin)
}

func (c *call) Variadic(ctx context.Context, group string) ([]cty.Value, error) {
	if c.n.op == nil {
		return nil, fmt.Errorf("%s has no variadic group %q", c.n.ref, group)
	}
	pins := c.n.op.VariadicPins(group)
	out := make([]cty.Value, 0, len(pins))
	for _, p := range pins {
		v, err := c.Input(ctx, p.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *call) IsLinked(pin string) bool {
	b, ok := c.n.inputs[pin]
	return ok && b.source != nil
}

func (c *call) QueryParameter(name string) (cty.Value, bool) { return c.q.Param(name) }

func (c *call) GraphInput(ctx context.Context, input uuid.UUID) (cty.Value, bool, error) {
	return c.sc.GraphInput(ctx, c.q, input)
}

func (c *call) Parameter(ctx context.Context, parameter uuid.UUID) (cty.Value, error) {
	return c.sc.Parameter(ctx, c.q, parameter)
}

func (c *call) CallFunction(ctx context.Context, terminal, output uuid.UUID) (cty.Value, error) {
	return c.sc.CallFunction(ctx, c.q, c.site(), terminal, output)
}

func (c *call) CallGraph(ctx context.Context, asset string, output uuid.UUID) (cty.Value, error) {
	return c.sc.CallGraph(ctx, c.q, c.site(), asset, output)
}

func (c *call) Report(ctx context.Context, d diag.Diagnostic) { c.sc.Sink().Report(ctx, d) }

func (c *call) site() CallSite {
	return CallSite{Evaluator: c.e, Ref: c.e.owner, Node: c.n.id, Op: c.n.op, Address: c.Ref()}
}
