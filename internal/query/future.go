package query

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Future is a value computed once.
type Future struct {
	done  chan struct{}
	value cty.Value
	err   error
	deps  map[*Dependency]uint64
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future is resolved or ctx is done. It returns the
// dependencies the value was computed from.
func (f *Future) Wait(ctx context.Context) (cty.Value, map[*Dependency]uint64, error) {
	select {
	case <-f.done:
		return f.value, f.deps, f.err
	case <-ctx.Done():
		return cty.NilVal, nil, ctx.Err()
	}
}

func (f *Future) resolve(v cty.Value, err error, deps map[*Dependency]uint64) {
	f.value, f.err, f.deps = v, err, deps
	close(f.done)
}
