package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrDispatcherStopped is returned by Sync once the dispatcher has been stopped.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// Dispatcher is the single consumer-facing execution context. Every posted
// function runs on one goroutine in FIFO order, so state observed from
// callbacks never needs additional synchronization.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	started bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher constructs a dispatcher. Functions posted before Start are
// queued and run once it starts.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Start launches the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.loop(runCtx)
}

// Stop drains already queued functions and waits for the loop to exit.
// Functions posted afterwards are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	d.signal()

	d.wg.Wait()
}

// Post schedules fn to run on the dispatcher goroutine.
func (d *Dispatcher) Post(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.signal()
}

// Sync runs fn on the dispatcher and waits for it to return. Must not be
// called from the dispatcher goroutine itself.
func (d *Dispatcher) Sync(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	d.queue = append(d.queue, func() {
		defer close(done)
		if fn != nil {
			fn()
		}
	})
	d.mu.Unlock()
	d.signal()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	for {
		batch := d.take()
		for _, fn := range batch {
			d.run(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			for _, fn := range d.take() {
				d.run(fn)
			}
			return
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) take() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.queue
	d.queue = nil
	return batch
}

func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatched callback panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}
