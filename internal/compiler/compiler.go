package compiler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/ctxlog"
	"github.com/specialistvlad/voxelflow/internal/diag"
	"github.com/specialistvlad/voxelflow/internal/graphir"
	"github.com/specialistvlad/voxelflow/internal/metrics"
	"github.com/specialistvlad/voxelflow/internal/model"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/specialistvlad/voxelflow/internal/serialized"
	"github.com/specialistvlad/voxelflow/internal/serializer"
	"golang.org/x/sync/singleflight"
)

// ErrCompilationFailed wraps the diagnostics of a failed compilation.
var ErrCompilationFailed = errors.New("compilation failed")

// PinAddress names an output pin of a terminal graph to observe.
type PinAddress struct {
	Asset    string
	Terminal string
	Node     string
	Pin      string
}

func (a PinAddress) targets(asset, terminal string) bool {
	return a.Asset == asset && a.Terminal == terminal
}

func (a PinAddress) String() string {
	return fmt.Sprintf("%s.%s.%s:%s", a.Asset, a.Terminal, a.Node, a.Pin)
}

// ParsePinAddress parses the `<asset>.<terminal>.<node>:<pin>` form.
func ParsePinAddress(s string) (PinAddress, error) {
	path, pin, ok := strings.Cut(s, ":")
	parts := strings.Split(path, ".")
	if !ok || pin == "" || len(parts) != 3 || slices.Contains(parts, "") {
		return PinAddress{}, fmt.Errorf("invalid pin address %q: expected <asset>.<terminal>.<node>:<pin>", s)
	}
	return PinAddress{Asset: parts[0], Terminal: parts[1], Node: parts[2], Pin: pin}, nil
}

// Options tune the pipeline.
type Options struct {
	// PreviewPin grafts a queryable Preview node behind one pin.
	PreviewPin *PinAddress
	// DebugPins and RangePins graft reporting nodes behind pins.
	DebugPins []PinAddress
	RangePins []PinAddress
	// StopAfter ends the pipeline after the named pass. Used to inspect
	// intermediate graphs.
	StopAfter string
}

// Lowered is the compiled form of one terminal graph, shared by all of its
// outputs. It must not be modified; Carve works on a copy.
type Lowered struct {
	Asset        string
	Terminal     string
	TerminalGuid uuid.UUID
	Function     bool
	Revision     uint64
	Outputs      []*model.Declaration
	Graph        *graphir.Graph
	// Diagnostics holds the warnings of the compilation.
	Diagnostics diag.Diagnostics
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithOptions sets the pipeline options.
func WithOptions(opts Options) Option {
	return func(c *Compiler) { c.opts = opts }
}

// WithSink sets where compilation diagnostics are reported.
func WithSink(sink diag.Sink) Option {
	return func(c *Compiler) { c.sink = sink }
}

// WithMetrics enables compilation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

type terminalKey struct {
	asset    string
	terminal string
}

func (k terminalKey) String() string { return k.asset + "." + k.terminal }

type result struct {
	lowered  *Lowered
	err      error
	revision uint64
}

// Compiler lowers the terminals of a library. Results are cached per
// terminal and asset revision; failures are cached too so that a broken
// graph is reported once per edit.
type Compiler struct {
	reg     *registry.Registry
	lib     *model.Library
	ser     *serializer.Serializer
	opts    Options
	sink    diag.Sink
	metrics *metrics.Metrics

	flight singleflight.Group
	mu     sync.Mutex
	cache  map[terminalKey]*result
}

// New creates a Compiler.
func New(reg *registry.Registry, lib *model.Library, opts ...Option) *Compiler {
	c := &Compiler{
		reg:   reg,
		lib:   lib,
		ser:   serializer.New(reg, lib),
		sink:  diag.Discard,
		cache: make(map[terminalKey]*result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lower returns the lowered graph of a terminal, compiling it when the
// cached result is missing or older than the asset.
func (c *Compiler) Lower(ctx context.Context, asset, terminal string) (*Lowered, error) {
	live, ok := c.lib.Asset(asset)
	if !ok {
		return nil, fmt.Errorf("unknown asset %q", asset)
	}
	key := terminalKey{asset, terminal}
	rev := live.Revision()

	c.mu.Lock()
	r, ok := c.cache[key]
	c.mu.Unlock()
	if ok && r.revision == rev {
		return r.lowered, r.err
	}

	v, _, _ := c.flight.Do(key.String(), func() (any, error) {
		r := c.lower(ctx, asset, terminal)
		if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
			return r, nil
		}
		c.mu.Lock()
		c.cache[key] = r
		c.mu.Unlock()
		return r, nil
	})
	r = v.(*result)
	return r.lowered, r.err
}

func (c *Compiler) lower(ctx context.Context, asset, terminal string) *result {
	ctx, logger := ctxlog.With(ctx, "asset", asset, "terminal", terminal)
	start := time.Now()

	src, err := c.ser.Serialize(ctx, asset, terminal)
	if err != nil {
		c.metrics.ObserveCompile(time.Since(start), false)
		return &result{err: err}
	}
	lowered, diags, err := c.compile(ctx, src)
	for _, d := range diags {
		c.sink.Report(ctx, d)
	}
	c.metrics.ObserveCompile(time.Since(start), err == nil)
	if err != nil {
		logger.Warn("Compilation failed.", "revision", src.Revision, "errors", len(diags.Errors()))
		return &result{err: err, revision: src.Revision}
	}
	logger.Info("Compiled terminal graph.", "revision", src.Revision, "nodes", lowered.Graph.Len(), "duration", time.Since(start))
	return &result{lowered: lowered, revision: src.Revision}
}

// Compile runs the pipeline over an already serialized graph. Diagnostics
// are returned, not reported.
func (c *Compiler) Compile(ctx context.Context, src *serialized.Graph) (*Lowered, diag.Diagnostics, error) {
	ctx, _ = ctxlog.With(ctx, "asset", src.Asset, "terminal", src.Terminal)
	return c.compile(ctx, src)
}

func (c *Compiler) compile(ctx context.Context, src *serialized.Graph) (*Lowered, diag.Diagnostics, error) {
	g, diags, err := run(ctx, c.reg, c.opts, src)
	if err != nil {
		return nil, diags, err
	}
	if g == nil {
		return nil, diags, fmt.Errorf("%w: %s.%s: %w", ErrCompilationFailed, src.Asset, src.Terminal, diags.Err())
	}
	return &Lowered{
		Asset:        src.Asset,
		Terminal:     src.Terminal,
		TerminalGuid: src.TerminalGuid,
		Function:     src.Function,
		Revision:     src.Revision,
		Outputs:      src.Outputs,
		Graph:        g,
		Diagnostics:  diags,
	}, diags, nil
}

// Forget drops the cached results of every terminal of an asset.
func (c *Compiler) Forget(asset string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cache {
		if key.asset == asset {
			delete(c.cache, key)
			c.flight.Forget(key.String())
		}
	}
}

// ForgetAll drops every cached result.
func (c *Compiler) ForgetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cache {
		c.flight.Forget(key.String())
	}
	clear(c.cache)
}

// Registry returns the registry the compiler instantiates nodes from.
func (c *Compiler) Registry() *registry.Registry { return c.reg }
