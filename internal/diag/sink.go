package diag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
)

// Sink consumes diagnostics emitted by the compiler and the runtime.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, d Diagnostic)

func (f SinkFunc) Report(ctx context.Context, d Diagnostic) { f(ctx, d) }

// LogSink writes every diagnostic to the context logger.
type LogSink struct{}

func (LogSink) Report(ctx context.Context, d Diagnostic) {
	logger := ctxlog.FromContext(ctx)
	level := slog.LevelInfo
	switch d.Severity {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	logger.Log(ctx, level, d.Summary, "location", d.Location(), "detail", d.Detail)
}

// Collector keeps reported diagnostics in memory.
type Collector struct {
	mu    sync.Mutex
	diags Diagnostics
}

func (c *Collector) Report(_ context.Context, d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(Diagnostics, len(c.diags))
	copy(out, c.diags)
	return out
}

// Reset drops all collected diagnostics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = nil
}

// Tee fans a diagnostic out to several sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		for _, s := range sinks {
			s.Report(ctx, d)
		}
	})
}

// Cook wraps a sink for non-interactive builds: errors are reported as
// warnings so that a batch build does not fail on a single broken graph.
func Cook(sink Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		if d.Severity == Error {
			d.Severity = Warning
		}
		sink.Report(ctx, d)
	})
}

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(context.Context, Diagnostic) {})
