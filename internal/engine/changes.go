package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/evaluator"
	"github.com/specialistvlad/voxelflow/internal/scheduler"
)

// NotifyTerminalGraphChanged recompiles the evaluators of one terminal
// after its nodes or links were edited.
func (e *Engine) NotifyTerminalGraphChanged(ctx context.Context, asset, terminal string) error {
	a, ok := e.lib.Asset(asset)
	if !ok {
		return fmt.Errorf("asset %q is not loaded", asset)
	}
	t, ok := a.Terminal(terminal)
	if !ok {
		return fmt.Errorf("asset %q has no terminal %q", asset, terminal)
	}
	return e.recompile(ctx, "terminal graph changed", func(k evaluator.Key) bool {
		return k.Asset == asset && k.Terminal == t.Guid
	}, asset)
}

// NotifyAssetChanged recompiles every evaluator of an asset.
func (e *Engine) NotifyAssetChanged(ctx context.Context, asset string) error {
	return e.recompile(ctx, "asset changed", func(k evaluator.Key) bool {
		return k.Asset == asset
	}, asset)
}

// NotifyDeclarationChanged handles edits of an asset's parameters, inputs or
// outputs. Callers of the asset see its declarations as pins, so every
// evaluator is recompiled; unaffected ones are kept by the snapshot check.
func (e *Engine) NotifyDeclarationChanged(ctx context.Context, asset string) error {
	reason := fmt.Sprintf("declarations of %s changed", asset)
	return e.recompile(ctx, reason, func(evaluator.Key) bool { return true }, e.lib.Names()...)
}

// NotifyBaseGraphChanged recompiles a base asset and everything deriving
// from it.
func (e *Engine) NotifyBaseGraphChanged(ctx context.Context, base string) error {
	affected := append([]string{base}, e.lib.Derived(base)...)
	set := make(map[string]bool, len(affected))
	for _, name := range affected {
		set[name] = true
	}
	return e.recompile(ctx, "base graph changed", func(k evaluator.Key) bool {
		return set[k.Asset]
	}, affected...)
}

// recompile forgets the lowered graphs of assets, invalidates their
// declaration dependencies and recompiles the matching evaluators, all on
// the serial goroutine.
func (e *Engine) recompile(ctx context.Context, reason string, pred func(evaluator.Key) bool, assets ...string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.serial.Do(ctx, func(ctx context.Context) error {
		scheduler.AssertSerial(ctx)
		logger := ctxlog.FromContext(ctx).With("reason", reason)
		for _, asset := range assets {
			e.comp.Forget(asset)
			e.AssetDependency(asset).Invalidate()
		}
		swapped, err := e.refs.RecompileWhere(ctx, pred)
		logger.Debug("Recompiled evaluators.", "assets", assets, "swapped", swapped)
		return err
	})
}
