package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/voxelflow/internal/node"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/specialistvlad/voxelflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// TypeProbe is the node type registered by ProbeModule.
const TypeProbe = "Probe"

// ExecutionRecord holds the start and end times of one probe computation.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// ProbeModule registers a Probe node that passes its In pin through to Out
// after an optional delay, recording every computation.
type ProbeModule struct {
	Delay time.Duration

	calls   atomic.Int32
	mu      sync.Mutex
	records map[string][]ExecutionRecord
}

// Register implements registry.Module.
func (m *ProbeModule) Register(r *registry.Registry) {
	spec := node.Define(TypeProbe).
		Category("Test").
		Input("In", pintype.Float).
		Output("Out", pintype.Float).
		Build()
	r.Register(spec, map[string]node.ComputeFunc{"Out": m.compute})
}

func (m *ProbeModule) compute(ctx context.Context, call node.Call) (cty.Value, error) {
	start := time.Now()
	m.calls.Add(1)
	v, err := call.Input(ctx, "In")
	if err != nil {
		return cty.NilVal, err
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return cty.NilVal, ctx.Err()
		}
	}
	m.mu.Lock()
	if m.records == nil {
		m.records = make(map[string][]ExecutionRecord)
	}
	ref := call.Ref().String()
	m.records[ref] = append(m.records[ref], ExecutionRecord{Start: start, End: time.Now()})
	m.mu.Unlock()
	return v, nil
}

// Calls is the number of computations started so far.
func (m *ProbeModule) Calls() int { return int(m.calls.Load()) }

// Records returns the computations of the probe node at ref.
func (m *ProbeModule) Records(ref string) []ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutionRecord(nil), m.records[ref]...)
}

// All returns every recorded computation keyed by node reference.
func (m *ProbeModule) All() map[string][]ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]ExecutionRecord, len(m.records))
	for ref, rs := range m.records {
		out[ref] = append([]ExecutionRecord(nil), rs...)
	}
	return out
}
