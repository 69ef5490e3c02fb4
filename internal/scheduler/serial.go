package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/voxelflow/internal/ctxlog"
)

// ErrSerialClosed is returned for work submitted after Close.
var ErrSerialClosed = errors.New("serial queue is closed")

type serialKey struct{}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Serial runs submitted functions one at a time on a dedicated goroutine.
type Serial struct {
	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSerial starts the serial goroutine.
func NewSerial() *Serial {
	s := &Serial{jobs: make(chan job), quit: make(chan struct{})}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *Serial) loop() {
	defer s.wg.Done()
	for {
		select {
		case j := <-s.jobs:
			j.done <- s.run(j)
		case <-s.quit:
			return
		}
	}
}

func (s *Serial) run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic on serial goroutine: %v", r)
			ctxlog.FromContext(j.ctx).Error("Serial task panicked.", "panic", r)
		}
	}()
	return j.fn(context.WithValue(j.ctx, serialKey{}, s))
}

// Do runs fn on the serial goroutine and waits for it. Calls made from the
// serial goroutine itself run inline.
func (s *Serial) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(serialKey{}) == s {
		return fn(ctx)
	}
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-s.quit:
		return ErrSerialClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

// Close stops the serial goroutine after the running job.
func (s *Serial) Close() {
	s.once.Do(func() { close(s.quit) })
	s.wg.Wait()
}

// OnSerial reports whether ctx belongs to a function running on a serial
// goroutine.
func OnSerial(ctx context.Context) bool {
	_, ok := ctx.Value(serialKey{}).(*Serial)
	return ok
}

// AssertSerial panics unless ctx belongs to the serial goroutine.
func AssertSerial(ctx context.Context) {
	if !OnSerial(ctx) {
		panic("scheduler: mutation outside the serial goroutine")
	}
}
