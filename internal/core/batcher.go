package core

import (
	"sync"
	"time"
)

// Batcher accumulates items submitted within one window and hands them to a
// flush callback once, in submission order. Flushes never overlap.
type Batcher[T any] struct {
	mu      sync.Mutex
	flushMu sync.Mutex
	window  time.Duration
	flush   func([]T)
	pending []T
	timer   *time.Timer
	closed  bool
}

// NewBatcher constructs a batcher. A zero window flushes on the next timer tick.
func NewBatcher[T any](window time.Duration, flush func(items []T)) *Batcher[T] {
	return &Batcher[T]{window: window, flush: flush}
}

// Add queues items and arms the timer if it is idle. It reports false once the
// batcher is closed.
func (b *Batcher[T]) Add(items ...T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.pending = append(b.pending, items...)
	if b.timer == nil && len(b.pending) > 0 {
		b.timer = time.AfterFunc(b.window, b.Flush)
	}
	return true
}

// Pending returns the number of queued items.
func (b *Batcher[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Drain removes and returns queued items without calling the flush callback.
func (b *Batcher[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked()
}

// Flush hands queued items to the callback now.
func (b *Batcher[T]) Flush() {
	_ = b.FlushWith(func(items []T) error {
		if len(items) > 0 && b.flush != nil {
			b.flush(items)
		}
		return nil
	})
}

// FlushWith takes the queued items and hands them to fn instead of the flush
// callback, serialized with every other flush. fn sees an empty slice when
// nothing is queued.
func (b *Batcher[T]) FlushWith(fn func(items []T) error) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.mu.Lock()
	items := b.takeLocked()
	b.mu.Unlock()
	return fn(items)
}

// Close flushes what is queued and rejects further items.
func (b *Batcher[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Flush()
}

func (b *Batcher[T]) takeLocked() []T {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	items := b.pending
	b.pending = nil
	return items
}
