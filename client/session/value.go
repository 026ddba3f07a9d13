package session

import "sync"

// Value is a publish/subscribe cell with latest-value semantics.
// A single owner writes; any number of readers call Get or Subscribe.
// Subscriber channels are conflated: a slow reader skips intermediate
// values and always receives the most recent one, never a torn write.
type Value[T any] struct {
	mu   sync.RWMutex
	cur  T
	subs map[chan T]struct{}
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[chan T]struct{}),
	}
}

// Get returns a snapshot of the latest published value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set publishes a new value to all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = val
	for ch := range v.subs {
		publish(ch, val)
	}
}

// Subscribe registers a channel that immediately carries the current
// value and then every subsequent publish (conflated to the latest).
// The returned cancel func must be called to release the subscription.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	v.mu.Lock()
	v.subs[ch] = struct{}{}
	publish(ch, v.cur)
	v.mu.Unlock()

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, ch)
	}
	return ch, cancel
}

// publish replaces the buffered value if the subscriber has not
// consumed the previous one.
func publish[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
