// Package nodetest provides a scripted node.Call for unit testing compute
// functions without compiling a graph.
package nodetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Call is a node.Call whose inputs and scope are plain maps. Unset inputs
// read the pin default, as in a compiled graph.
type Call struct {
	Op      *node.Node
	Address *nodeid.Address
	Pin     string

	Inputs      map[string]cty.Value
	Query       map[string]cty.Value
	GraphInputs map[uuid.UUID]cty.Value
	Parameters  map[uuid.UUID]cty.Value
	// Functions and Graphs answer calls keyed by output guid.
	Functions map[uuid.UUID]cty.Value
	Graphs    map[string]map[uuid.UUID]cty.Value

	mu       sync.Mutex
	reads    []string
	reported diag.Diagnostics
}

var _ node.Call = (*Call)(nil)

// New returns a Call computing output pin of op.
func New(op *node.Node, pin string) *Call {
	return &Call{
		Op:          op,
		Address:     nodeid.New("test", op.Type()),
		Pin:         pin,
		Inputs:      make(map[string]cty.Value),
		Query:       make(map[string]cty.Value),
		GraphInputs: make(map[uuid.UUID]cty.Value),
		Parameters:  make(map[uuid.UUID]cty.Value),
		Functions:   make(map[uuid.UUID]cty.Value),
		Graphs:      make(map[string]map[uuid.UUID]cty.Value),
	}
}

// Set assigns an input and returns the call for chaining.
func (c *Call) Set(pin string, v cty.Value) *Call {
	c.Inputs[pin] = v
	return c
}

// Reads lists the input pins read so far, in order.
func (c *Call) Reads() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.reads...)
}

// Reported returns the diagnostics reported so far.
func (c *Call) Reported() diag.Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(diag.Diagnostics(nil), c.reported...)
}

func (c *Call) Node() *node.Node                { return c.Op }
func (c *Call) Ref() *nodeid.Address            { return c.Address }
func (c *Call) Output() string                  { return c.Pin }
func (c *Call) PinType(pin string) pintype.Type { return c.Op.MustPin(pin).Type }

func (c *Call) IsLinked(pin string) bool {
	_, ok := c.Inputs[pin]
	return ok
}

func (c *Call) Input(_ context.Context, pin string) (cty.Value, error) {
	c.mu.Lock()
	c.reads = append(c.reads, pin)
	c.mu.Unlock()
	p, ok := c.Op.Pin(pin)
	if !ok {
		return cty.NilVal, fmt.Errorf("node %s has no pin %q", c.Op.Type(), pin)
	}
	if v, ok := c.Inputs[pin]; ok {
		return p.Type.Convert(v)
	}
	if p.Default != cty.NilVal {
		return p.Default, nil
	}
	return p.Type.Zero(), nil
}

func (c *Call) Variadic(ctx context.Context, group string) ([]cty.Value, error) {
	var out []cty.Value
	for _, p := range c.Op.VariadicPins(group) {
		v, err := c.Input(ctx, p.Decl.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Call) QueryParameter(name string) (cty.Value, bool) {
	v, ok := c.Query[name]
	return v, ok
}

func (c *Call) GraphInput(_ context.Context, input uuid.UUID) (cty.Value, bool, error) {
	v, ok := c.GraphInputs[input]
	return v, ok, nil
}

func (c *Call) Parameter(_ context.Context, parameter uuid.UUID) (cty.Value, error) {
	v, ok := c.Parameters[parameter]
	if !ok {
		return cty.NilVal, fmt.Errorf("parameter %s is not set", parameter)
	}
	return v, nil
}

func (c *Call) CallFunction(_ context.Context, _, output uuid.UUID) (cty.Value, error) {
	v, ok := c.Functions[output]
	if !ok {
		return cty.NilVal, fmt.Errorf("function output %s is not scripted", output)
	}
	return v, nil
}

func (c *Call) CallGraph(_ context.Context, asset string, output uuid.UUID) (cty.Value, error) {
	v, ok := c.Graphs[asset][output]
	if !ok {
		return cty.NilVal, fmt.Errorf("graph %s output %s is not scripted", asset, output)
	}
	return v, nil
}

func (c *Call) Report(_ context.Context, d diag.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reported = append(c.reported, d)
}
