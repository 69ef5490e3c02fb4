package evaluator

import (
	"context"
	"runtime"
	"sync"
	"weak"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/voxelflow/internal/metrics"
)

// Table shares refs by key without keeping them alive. Instances hold the
// refs they use; once the last instance lets go, the entry disappears.
type Table struct {
	metrics *metrics.Metrics

	mu   sync.Mutex
	refs map[Key]weak.Pointer[Ref]
}

// NewTable returns an empty table. m may be nil.
func NewTable(m *metrics.Metrics) *Table {
	return &Table{metrics: m, refs: make(map[Key]weak.Pointer[Ref])}
}

// Get returns the live ref for key, creating it with newRef when there is
// none.
func (t *Table) Get(key Key, newRef func() *Ref) *Ref {
	t.mu.Lock()
	defer t.mu.Unlock()
	if wp, ok := t.refs[key]; ok {
		if r := wp.Value(); r != nil {
			return r
		}
	}
	r := newRef()
	wp := weak.Make(r)
	t.refs[key] = wp
	runtime.AddCleanup(r, t.collect, cleanupArg{key: key, wp: wp})
	t.metrics.SetEvaluatorRefs(len(t.refs))
	return r
}

type cleanupArg struct {
	key Key
	wp  weak.Pointer[Ref]
}

func (t *Table) collect(arg cleanupArg) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refs[arg.key] == arg.wp {
		delete(t.refs, arg.key)
	}
	t.metrics.SetEvaluatorRefs(len(t.refs))
}

// Refs returns the live refs.
func (t *Table) Refs() []*Ref {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Ref, 0, len(t.refs))
	for _, wp := range t.refs {
		if r := wp.Value(); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of live refs.
func (t *Table) Len() int { return len(t.Refs()) }

// RecompileWhere recompiles every live ref whose key matches pred and
// returns how many of them swapped their evaluator.
func (t *Table) RecompileWhere(ctx context.Context, pred func(Key) bool) (int, error) {
	var (
		swapped int
		errs    *multierror.Error
	)
	for _, r := range t.Refs() {
		if !pred(r.Key()) {
			continue
		}
		ok, err := r.Recompile(ctx)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if ok {
			swapped++
		}
	}
	return swapped, errs.ErrorOrNil()
}
