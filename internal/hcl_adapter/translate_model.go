// This file contains the logic for translating the decoded HCL blocks into
// the format-agnostic authoring model.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/pintype"
)

// translateAsset converts an asset block. Parameter guids depend on the
// parameter name only, so a derived asset overriding a parameter of its base
// shares the base's guid.
func (l *Loader) translateAsset(ctx context.Context, b *assetBlock, source string) (*model.Asset, error) {
	ctx, logger := ctxlog.With(ctx, "asset", b.Name)
	logger.Debug("Translating HCL asset to internal model.")

	a := &model.Asset{Name: b.Name, Main: model.MainTerminal, Source: source}
	if b.Base != nil {
		a.Base = *b.Base
	}
	if b.Main != nil {
		a.Main = *b.Main
	}

	var err error
	if a.Parameters, err = translateDeclarations(ctx, b.Parameters, model.DeclParameter); err != nil {
		return nil, fmt.Errorf("asset %q: %w", b.Name, err)
	}
	if a.Inputs, err = translateDeclarations(ctx, b.Inputs, model.DeclInput, b.Name); err != nil {
		return nil, fmt.Errorf("asset %q: %w", b.Name, err)
	}

	seen := make(map[string]bool)
	add := func(tb *terminalBlock, function bool) error {
		if seen[tb.Name] {
			return fmt.Errorf("asset %q: terminal %q is defined more than once", b.Name, tb.Name)
		}
		seen[tb.Name] = true
		t, err := l.translateTerminal(ctx, b.Name, tb, function)
		if err != nil {
			return fmt.Errorf("asset %q: %w", b.Name, err)
		}
		a.Terminals = append(a.Terminals, t)
		return nil
	}
	for _, tb := range b.Terminals {
		if err := add(tb, false); err != nil {
			return nil, err
		}
	}
	for _, tb := range b.Functions {
		if err := add(tb, true); err != nil {
			return nil, err
		}
	}
	if _, ok := a.MainTerminal(); !ok {
		return nil, fmt.Errorf("asset %q: main terminal %q is not defined", b.Name, a.Main)
	}

	logger.Debug("Translated asset.", "terminals", len(a.Terminals), "parameters", len(a.Parameters))
	return a, nil
}

func (l *Loader) translateTerminal(ctx context.Context, asset string, b *terminalBlock, function bool) (*model.Terminal, error) {
	ctx, logger := ctxlog.With(ctx, "terminal", b.Name)

	t := &model.Terminal{Name: b.Name, Function: function}
	if b.Guid != nil {
		guid, err := uuid.Parse(*b.Guid)
		if err != nil {
			return nil, fmt.Errorf("terminal %q: invalid guid: %w", b.Name, err)
		}
		t.Guid = guid
	} else {
		t.Guid = model.GuidFor(asset, "terminal", b.Name)
	}

	if len(b.Inputs) > 0 && !function {
		return nil, fmt.Errorf("terminal %q: only functions declare inputs, declare graph inputs on the asset", b.Name)
	}
	var err error
	if t.Inputs, err = translateDeclarations(ctx, b.Inputs, model.DeclInput, asset, b.Name); err != nil {
		return nil, fmt.Errorf("terminal %q: %w", b.Name, err)
	}
	if t.Outputs, err = translateDeclarations(ctx, b.Outputs, model.DeclOutput, asset, b.Name); err != nil {
		return nil, fmt.Errorf("terminal %q: %w", b.Name, err)
	}

	seen := make(map[string]bool, len(b.Nodes))
	for _, nb := range b.Nodes {
		if seen[nb.Name] {
			return nil, fmt.Errorf("terminal %q: node %q is defined more than once", b.Name, nb.Name)
		}
		seen[nb.Name] = true
		n, err := l.translateNode(ctx, nb)
		if err != nil {
			return nil, fmt.Errorf("terminal %q: node %q: %w", b.Name, nb.Name, err)
		}
		t.Nodes = append(t.Nodes, n)
	}
	logger.Debug("Translated terminal.", "nodes", len(t.Nodes), "function", function)
	return t, nil
}

func (l *Loader) translateNode(ctx context.Context, b *nodeBlock) (*model.Node, error) {
	n := model.NewNode(b.Name, b.Type)

	if isExprDefined(ctx, b.Properties, "properties") {
		props, err := objectAttributes(b.Properties)
		if err != nil {
			return nil, fmt.Errorf("properties: %w", err)
		}
		for k, v := range props {
			n.Properties[k] = v
		}
	}
	if isExprDefined(ctx, b.Variadic, "variadic") {
		counts, err := intAttributes(b.Variadic)
		if err != nil {
			return nil, fmt.Errorf("variadic: %w", err)
		}
		n.Variadic = counts
	}
	if isExprDefined(ctx, b.Promote, "promote") {
		pairs, err := keyedExprs(b.Promote)
		if err != nil {
			return nil, fmt.Errorf("promote: %w", err)
		}
		for _, pair := range pairs {
			t, err := pintype.ParseExpr(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("promote %q: %w", pair.Key, err)
			}
			n.Promotions[pair.Key] = t
		}
	}

	pins, err := bodyPinAssigns(b.Remain)
	if err != nil {
		return nil, err
	}
	n.Pins = pins
	for _, pb := range b.Pins {
		if _, dup := n.Pins[pb.Name]; dup {
			return nil, fmt.Errorf("pin %q is assigned both as a whole and by member", pb.Name)
		}
		members, err := bodyPinAssigns(pb.Remain)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", pb.Name, err)
		}
		n.Pins[pb.Name] = &model.PinAssign{Members: members}
	}
	return n, nil
}
