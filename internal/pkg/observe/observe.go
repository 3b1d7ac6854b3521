// Package observe provides publish/subscribe primitives whose deliveries run
// on a caller-supplied executor.
package observe

import "sync"

// Executor runs functions on the consumer-facing context.
type Executor interface {
	Post(fn func())
}

// Broker fans values out to subscribers.
type Broker[T any] struct {
	exec Executor

	mu   sync.Mutex
	subs map[uint64]*subscription[T]
	next uint64
}

type subscription[T any] struct {
	fn     func(T)
	mu     sync.Mutex
	active bool
}

// NewBroker creates a broker delivering through exec.
func NewBroker[T any](exec Executor) *Broker[T] {
	return &Broker[T]{exec: exec, subs: make(map[uint64]*subscription[T])}
}

// Subscribe registers fn and returns a function removing it. The returned
// function is idempotent; once it returns no further deliveries reach fn
// unless one is already running.
func (b *Broker[T]) Subscribe(fn func(T)) func() {
	_, cancel := b.subscribe(fn)
	return cancel
}

func (b *Broker[T]) subscribe(fn func(T)) (*subscription[T], func()) {
	sub := &subscription[T]{fn: fn, active: true}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()

			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()
		})
	}
}

// Publish schedules delivery of v to every current subscriber.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	subs := make([]*subscription[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, v)
	}
}

// Len returns the number of active subscribers.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker[T]) deliver(s *subscription[T], v T) {
	b.exec.Post(func() {
		s.mu.Lock()
		active := s.active
		s.mu.Unlock()
		if active {
			s.fn(v)
		}
	})
}

// Value is an observable variable. Subscribers receive the current value on
// subscription and every value set afterwards.
type Value[T any] struct {
	mu     sync.RWMutex
	v      T
	broker *Broker[T]
}

// NewValue creates an observable holding initial.
func NewValue[T any](exec Executor, initial T) *Value[T] {
	return &Value[T]{v: initial, broker: NewBroker[T](exec)}
}

// Get returns the latest value.
func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v
}

// Set stores v and publishes it. Publication happens under the lock so
// subscribers observe values in the order they were set.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	o.broker.Publish(v)
}

// Update applies fn to the current value and publishes the result.
func (o *Value[T]) Update(fn func(T) T) T {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = fn(o.v)
	o.broker.Publish(o.v)
	return o.v
}

// Subscribe registers fn and delivers the current value to it first.
func (o *Value[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	sub, cancel := o.broker.subscribe(fn)
	o.broker.deliver(sub, o.v)
	return cancel
}
