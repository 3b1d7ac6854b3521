// Package debounce coalesces bursts of triggers into a single call that runs
// after a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Executor runs the debounced function once the quiet period elapsed.
type Executor interface {
	Post(fn func())
}

// Debouncer holds at most one scheduled call. Scheduling a new call cancels
// the previous one unconditionally.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration
	exec  Executor

	mu    sync.Mutex
	timer clockwork.Timer
	seq   uint64
}

// New creates a debouncer firing fn on exec after delay of no new triggers.
func New(clock clockwork.Clock, delay time.Duration, exec Executor) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, delay: delay, exec: exec}
}

// Trigger replaces any pending call with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.exec.Post(func() {
			if d.take(seq) {
				fn()
			}
		})
	})
}

// Cancel drops the pending call, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.timer != nil
	d.stopLocked()
	d.seq++
	return pending
}

// Pending reports whether a call is scheduled and has not run yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// take claims the call identified by seq; a stale timer that fired before it
// could be stopped loses here.
func (d *Debouncer) take(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return false
	}
	d.timer = nil
	return true
}
