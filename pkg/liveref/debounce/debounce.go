// Package debounce delays a callback until input has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before extraction runs
const DefaultDelay = time.Second

// Debouncer runs fn with the most recent value once delay has passed since
// the last Trigger. At most one call of fn is in flight at a time.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	stopped bool

	run sync.Mutex // serializes fn
	wg  sync.WaitGroup
}

// New creates a debouncer; delay <= 0 means DefaultDelay.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger records v and restarts the quiet period
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	d.armed = true
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire()
	})
}

// Flush runs the pending call now, if any, and waits for it to finish.
// It reports whether a call was made.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	d.mu.Unlock()
	return d.fire()
}

// Stop cancels any pending call and waits for a running one to return.
// Later Triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.armed = false
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Debouncer[T]) fire() bool {
	d.mu.Lock()
	if !d.armed || d.stopped {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	d.armed = false
	var zero T
	d.pending = zero
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	d.fn(v)
	return true
}
