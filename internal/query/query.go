package query

import (
	"maps"
	"slices"
	"strings"

	"github.com/specialistvlad/voxelflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Well-known query parameters.
const (
	ParamPosition = "position"
)

// core is shared by a query and all of its children.
type core struct {
	params      map[string]cty.Value
	fingerprint string
}

// Query carries the parameters of one evaluation request, the call stack
// of graph and function calls, and the tracker recording what the current
// computation depends on. Children share the parameters.
type Query struct {
	core      *core
	callstack []*nodeid.Address
	tracker   *Tracker
}

// New creates a root query.
func New(params map[string]cty.Value) *Query {
	params = maps.Clone(params)
	if params == nil {
		params = make(map[string]cty.Value)
	}
	return &Query{
		core:    &core{params: params, fingerprint: fingerprint(params)},
		tracker: NewTracker(),
	}
}

func fingerprint(params map[string]cty.Value) string {
	keys := slices.Sorted(maps.Keys(params))
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k].GoString())
	}
	return sb.String()
}

// Param reads a query parameter.
func (q *Query) Param(name string) (cty.Value, bool) {
	v, ok := q.core.params[name]
	return v, ok
}

// Fingerprint identifies the parameter set. Equal parameters give equal
// fingerprints.
func (q *Query) Fingerprint() string { return q.core.fingerprint }

// Callstack returns the call frames, outermost first.
func (q *Query) Callstack() []*nodeid.Address { return slices.Clone(q.callstack) }

// Depth is the number of call frames.
func (q *Query) Depth() int { return len(q.callstack) }

// Tracker is where the current computation records its dependencies.
func (q *Query) Tracker() *Tracker { return q.tracker }

// WithTracker returns a copy recording into t.
func (q *Query) WithTracker(t *Tracker) *Query {
	c := *q
	c.tracker = t
	return &c
}

// Enter returns a child query for a call made from the node at frame.
func (q *Query) Enter(frame *nodeid.Address, t *Tracker) *Query {
	return &Query{
		core:      q.core,
		callstack: append(slices.Clone(q.callstack), frame),
		tracker:   t,
	}
}
