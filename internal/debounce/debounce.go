// Package debounce delays propagation of a rapidly changing value.
//
// A Debouncer holds a settled value. Each Set restarts a timer; only when the
// timer runs out without another Set does the settled value change and the
// settle callback run. Intermediate values are never observed.
package debounce

import (
	"sync"
	"time"

	"github.com/DukeRupert/treadline/internal/clock"
)

// Debouncer produces the trailing value of a source after a quiet period.
type Debouncer[T comparable] struct {
	clk      clock.Clock
	delay    time.Duration
	onSettle func(T)

	mu      sync.Mutex
	settled T
	pending T
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

// New creates a Debouncer that starts settled at initial.
//
// onSettle is called from the clock's timer goroutine (or from Advance on a
// fake clock) each time a quiet period ends, even if the settled value is
// unchanged; callers compare against their own state. It may be nil.
func New[T comparable](clk clock.Clock, delay time.Duration, initial T, onSettle func(T)) *Debouncer[T] {
	if clk == nil {
		clk = clock.Real()
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		clk:      clk,
		delay:    delay,
		onSettle: onSettle,
		settled:  initial,
	}
}

// Set records a new source value and restarts the quiet period.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = v
	d.timer = d.clk.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Value returns the last settled value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush settles the pending value now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	gen := d.gen
	d.mu.Unlock()

	d.fire(gen)
}

// Reset cancels any pending value and settles on v without calling onSettle.
// Used when the value is adopted from elsewhere, such as URL navigation.
func (d *Debouncer[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.settled = v
	d.pending = v
}

// Stop cancels any pending value. No callback runs after Stop returns and
// later calls to Set are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.settled = d.pending
	v := d.settled
	cb := d.onSettle
	d.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}
