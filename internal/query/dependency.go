package query

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Dependency is something evaluations read that can change: a compiled
// evaluator, a parameter value, a declaration.
type Dependency struct {
	name    string
	version atomic.Uint64

	mu   sync.Mutex
	next uint64
	subs map[uint64]func()
}

// NewDependency creates a dependency at version zero.
func NewDependency(name string) *Dependency {
	return &Dependency{name: name, subs: make(map[uint64]func())}
}

func (d *Dependency) Name() string { return d.name }

// Version changes every time the dependency is invalidated.
func (d *Dependency) Version() uint64 { return d.version.Load() }

// Subscribe registers fn to run once on the next invalidation. The
// returned function cancels the subscription.
func (d *Dependency) Subscribe(fn func()) (cancel func()) {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// Invalidate bumps the version and notifies every subscriber.
func (d *Dependency) Invalidate() {
	d.mu.Lock()
	subs := d.subs
	d.subs = make(map[uint64]func())
	d.version.Add(1)
	d.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (d *Dependency) String() string { return d.name }

// Tracker records the dependencies read by one evaluation, with the version
// seen at the first read.
type Tracker struct {
	mu   sync.Mutex
	deps map[*Dependency]uint64
}

// NewTracker returns a tracker already holding deps.
func NewTracker(deps ...*Dependency) *Tracker {
	t := &Tracker{deps: make(map[*Dependency]uint64, len(deps))}
	for _, d := range deps {
		t.Add(d)
	}
	return t
}

// Add records d at its current version unless it was recorded before.
func (t *Tracker) Add(d *Dependency) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.deps[d]; !ok {
		t.deps[d] = d.Version()
	}
}

// Merge records every dependency of deps, keeping the oldest version seen.
func (t *Tracker) Merge(deps map[*Dependency]uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for d, v := range deps {
		if seen, ok := t.deps[d]; !ok || v < seen {
			t.deps[d] = v
		}
	}
}

// Deps returns a copy of the recorded dependencies.
func (t *Tracker) Deps() map[*Dependency]uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.deps)
}

// Stale reports whether any recorded dependency changed since it was read.
func Stale(deps map[*Dependency]uint64) bool {
	for d, v := range deps {
		if d.Version() != v {
			return true
		}
	}
	return false
}
