package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/specialistvlad/voxelflow/internal/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type slotKey struct{}

// Pool bounds the number of evaluation tasks running in parallel.
type Pool struct {
	sem     *semaphore.Weighted
	size    int
	active  atomic.Int64
	metrics *metrics.Metrics
}

// NewPool creates a pool with size worker slots. m may be nil.
func NewPool(size int, m *metrics.Metrics) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size, metrics: m}
}

// Size is the number of worker slots.
func (p *Pool) Size() int { return p.size }

// Active is the number of tracked tasks currently running.
func (p *Pool) Active() int64 { return p.active.Load() }

// Track counts a task until the returned function is called.
func (p *Pool) Track() (done func()) {
	p.active.Add(1)
	p.metrics.TaskStarted()
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			p.active.Add(-1)
			p.metrics.TaskFinished()
		}
	}
}

// Group runs a batch of tasks and collects the first error.
type Group struct {
	pool *Pool
	eg   *errgroup.Group
	ctx  context.Context
}

// Group starts a batch. The returned context is cancelled when a task of
// the batch fails.
func (p *Pool) Group(ctx context.Context) (*Group, context.Context) {
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{pool: p, eg: eg, ctx: ctx}, ctx
}

// Go runs fn on a free slot, or inline when the pool is saturated.
func (g *Group) Go(fn func(ctx context.Context) error) {
	p := g.pool
	if !p.sem.TryAcquire(1) {
		done := p.Track()
		err := fn(g.ctx)
		done()
		if err != nil {
			g.eg.Go(func() error { return err })
		}
		return
	}
	done := p.Track()
	g.eg.Go(func() error {
		defer p.sem.Release(1)
		defer done()
		return fn(context.WithValue(g.ctx, slotKey{}, p))
	})
}

// Wait blocks until every task of the batch returned.
func (g *Group) Wait() error { return g.eg.Wait() }

// Suspend runs wait with the caller's slot released, when the caller holds
// one, and takes a slot back afterwards.
func (p *Pool) Suspend(ctx context.Context, wait func() error) error {
	if ctx.Value(slotKey{}) != p {
		return wait()
	}
	p.sem.Release(1)
	err := wait()
	if acqErr := p.sem.Acquire(context.WithoutCancel(ctx), 1); acqErr != nil && err == nil {
		err = acqErr
	}
	return err
}
