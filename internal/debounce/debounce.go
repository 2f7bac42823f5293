// Package debounce delays propagation of a rapidly changing value until it has
// been stable for a fixed interval.
package debounce

import (
	"github.com/bbernstein/tidemap/internal/clock"
	"sync"
	"time"
)

type Debouncer[T any] struct {
	clock clock.Clock
	delay time.Duration
	emit  func(T)

	mu      sync.Mutex
	timer   clock.Timer
	pending uint64
	closed  bool
}

// New returns a debouncer calling emit with the latest pushed value once no new
// value has arrived for delay.
func New[T any](clk clock.Clock, delay time.Duration, emit func(T)) *Debouncer[T] {
	if clk == nil {
		clk = clock.New()
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		clock: clk,
		delay: delay,
		emit:  emit,
	}
}

// Push replaces the pending value and restarts the delay.
func (d *Debouncer[T]) Push(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.pending++
	seq := d.pending
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(seq, value)
	})
}

func (d *Debouncer[T]) fire(seq uint64, value T) {
	d.mu.Lock()
	// A real timer can fire after Stop lost the race; only the latest push counts.
	if d.closed || seq != d.pending {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.emit(value)
}

// Close cancels any pending emission. No emission starts after Close returns,
// but one already running on a timer goroutine may still be in progress. Close
// does not wait for it, so emit may call Close.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.pending++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
