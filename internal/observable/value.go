// Package observable provides a conflated value holder that broadcasts every
// change to its subscribers.
package observable

import "sync"

// Value holds the latest value of type T and notifies subscribers on Set.
//
// Each subscriber owns a one-slot buffer. Set never blocks: an undelivered
// value is replaced by the newer one, so a slow subscriber skips intermediate
// values but always ends on the latest and never sees them out of order.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set replaces the value and notifies all current subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = value
	if v.closed {
		return
	}
	for sub := range v.subs {
		sub.deliver(value)
	}
}

// Update applies fn to the current value under the lock and publishes the
// result. Set, Get and Subscribe wait until fn returns, so fn may do the
// work that must precede publication.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = fn(v.value)
	if !v.closed {
		for sub := range v.subs {
			sub.deliver(v.value)
		}
	}
	return v.value
}

// Subscribe registers a new subscriber. The returned subscription's channel
// already holds the current value.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	sub := &Subscription[T]{
		parent: v,
		ch:     make(chan T, 1),
	}
	sub.ch <- v.value

	if v.closed {
		sub.done = true
		close(sub.ch)
		return sub
	}
	v.subs[sub] = struct{}{}
	return sub
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Close detaches and closes every subscription. Later calls to Set still
// update the value but notify nobody.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	for sub := range v.subs {
		sub.done = true
		close(sub.ch)
	}
	v.subs = make(map[*Subscription[T]]struct{})
}

// Subscription receives values published by a Value.
type Subscription[T any] struct {
	parent *Value[T]
	ch     chan T
	done   bool // guarded by parent.mu
}

// C returns the channel values are delivered on. It is closed when the
// subscription or its Value is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription and drops any undelivered value. It is safe
// to call more than once.
func (s *Subscription[T]) Close() {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	if s.done {
		return
	}
	s.done = true
	delete(s.parent.subs, s)
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
}

// deliver must be called with parent.mu held.
func (s *Subscription[T]) deliver(value T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- value
}
