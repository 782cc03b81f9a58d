// Package changefeed fans out values to in-process subscribers.
package changefeed

import "sync"

// Bus delivers every published value to all current subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the value.
type Bus[T any] struct {
	mu   sync.RWMutex
	subs map[chan T]struct{}
	size int
}

// NewBus creates a Bus whose subscriber channels buffer size values.
func NewBus[T any](size int) *Bus[T] {
	if size <= 0 {
		size = 64
	}
	return &Bus[T]{
		subs: make(map[chan T]struct{}),
		size: size,
	}
}

// Publish sends v to every subscriber.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// subscriber is behind; drop to avoid blocking the publisher
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives all new values.
func (b *Bus[T]) Subscribe() chan T {
	ch := make(chan T, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers reports how many channels are currently subscribed.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
