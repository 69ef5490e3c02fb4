package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/engine"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/query"
	"github.com/zclconf/go-cty/cty"
)

const engineCloseTimeout = 10 * time.Second

// Compile lowers every terminal of an asset, or of every loaded asset when
// asset is empty. Diagnostics are reported to the app's sink; the returned
// error aggregates the failed terminals.
func (a *App) Compile(ctx context.Context, asset string, opts compiler.Options) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	e, err := a.newEngine(opts)
	if err != nil {
		return err
	}
	defer a.closeEngine(ctx, e)

	assets := a.library.Names()
	if asset != "" {
		if _, ok := a.library.Asset(asset); !ok {
			return fmt.Errorf("asset %q is not loaded", asset)
		}
		assets = []string{asset}
	}

	var result *multierror.Error
	lowered := 0
	for _, name := range assets {
		live, _ := a.library.Asset(name)
		snap, _ := live.Snapshot()
		for _, t := range snap.Terminals {
			if _, err := e.Compiler().Lower(ctx, name, t.Name); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			lowered++
		}
	}
	ctxlog.FromContext(ctx).Info("Compilation finished.", "terminals", lowered, "failed", len(result.WrappedErrors()))
	return result.ErrorOrNil()
}

// EvalRequest selects what Eval computes.
type EvalRequest struct {
	Asset string
	// Outputs names declared outputs of the main terminal. Empty means all.
	Outputs []string
	// Parameters are stored on the asset's root instance by name.
	Parameters map[string]cty.Value
	// Position is the sample position passed as the query's position
	// parameter.
	Position *[3]float64
	// Preview additionally evaluates the value flowing through one pin.
	Preview *compiler.PinAddress
	// Debug and Range report the values flowing through pins as info
	// diagnostics while evaluating.
	Debug []compiler.PinAddress
	Range []compiler.PinAddress
}

// EvalResult maps output names to values. Previews are keyed "preview:<id>".
type EvalResult map[string]cty.Value

// Eval evaluates outputs of an asset's main terminal.
func (a *App) Eval(ctx context.Context, req EvalRequest) (EvalResult, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.library == nil {
		return nil, errors.New("no graphs loaded")
	}
	live, ok := a.library.Asset(req.Asset)
	if !ok {
		return nil, fmt.Errorf("asset %q is not loaded", req.Asset)
	}
	main, ok := live.MainTerminal()
	if !ok {
		return nil, fmt.Errorf("asset %q has no main terminal", req.Asset)
	}
	if p := req.Preview; p != nil && (p.Asset != req.Asset || p.Terminal != main.Name) {
		return nil, fmt.Errorf("preview %s is not in the main terminal of %q", p, req.Asset)
	}
	e, err := a.newEngine(compiler.Options{
		PreviewPin: req.Preview,
		DebugPins:  req.Debug,
		RangePins:  req.Range,
	})
	if err != nil {
		return nil, err
	}
	defer a.closeEngine(ctx, e)
	outputs := req.Outputs
	if len(outputs) == 0 {
		for _, d := range main.Outputs {
			outputs = append(outputs, d.Name)
		}
	}

	names := make([]string, 0, len(req.Parameters))
	for name := range req.Parameters {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := e.SetParameter(ctx, req.Asset, name, req.Parameters[name]); err != nil {
			return nil, err
		}
	}

	params := map[string]cty.Value{}
	if p := req.Position; p != nil {
		params[query.ParamPosition] = pintype.VectorVal(p[0], p[1], p[2])
	}

	result := EvalResult{}
	for _, name := range outputs {
		v, err := e.Evaluate(ctx, req.Asset, name, params)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s.%s: %w", req.Asset, name, err)
		}
		result[name] = v
	}
	if req.Preview != nil {
		ids, err := e.Previews(ctx, req.Asset)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			v, err := e.EvaluateNode(ctx, req.Asset, id, params)
			if err != nil {
				return nil, fmt.Errorf("evaluating preview %s: %w", id, err)
			}
			result["preview:"+id] = v
		}
	}
	return result, nil
}

// Dump renders the lowered graph of a terminal as HCL. stopAfter ends the
// pipeline early to show an intermediate graph.
func (a *App) Dump(ctx context.Context, asset, terminal, stopAfter string) ([]byte, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if terminal == "" {
		terminal = model.MainTerminal
	}
	e, err := a.newEngine(compiler.Options{StopAfter: stopAfter})
	if err != nil {
		return nil, err
	}
	defer a.closeEngine(ctx, e)

	l, err := e.Compiler().Lower(ctx, asset, terminal)
	if err != nil {
		return nil, err
	}
	return compiler.Dump(l.Graph), nil
}

func (a *App) closeEngine(ctx context.Context, e *engine.Engine) {
	if err := e.Close(ctx, engineCloseTimeout); err != nil && !errors.Is(err, context.Canceled) {
		ctxlog.FromContext(ctx).Warn("Engine did not close cleanly.", "error", err)
	}
}
