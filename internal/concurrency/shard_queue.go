// File: internal/concurrency/shard_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ShardQueue is a bounded, lock-protected ring that hands ownership of one
// item at a time from the single producer (the event loop) to the single
// consumer (the shard worker).

package concurrency

import (
	"sync"
	"time"

	"github.com/momentics/hioload-shard/api"
)

// Ensure compile-time interface compliance.
var _ api.BlockingRing[any] = (*ShardQueue[any])(nil)

// ShardQueue is a fixed-capacity FIFO guarded by one mutex.
// tail is advanced only by the producer and head only by the consumer,
// both under mu; count never leaves [0, len(slots)].
type ShardQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	slots    []T
	head     int
	tail     int
	count    int
	closed   bool
}

// NewShardQueue allocates a queue with the given capacity. Capacity is fixed
// for the queue's lifetime and must be at least 1.
func NewShardQueue[T any](capacity int) *ShardQueue[T] {
	if capacity < 1 {
		panic("shard queue capacity must be >= 1")
	}
	q := &ShardQueue[T]{slots: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// TryEnqueue stores item in the tail slot. It returns false without touching
// any slot when the queue is full or closed.
func (q *ShardQueue[T]) TryEnqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.count == len(q.slots) {
		return false
	}
	q.push(item)
	return true
}

// Offer is TryEnqueue reporting why an item was refused: api.ErrQueueClosed
// after Close, api.ErrQueueFull otherwise.
func (q *ShardQueue[T]) Offer(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.closed:
		return api.ErrQueueClosed
	case q.count == len(q.slots):
		return api.ErrQueueFull
	}
	q.push(item)
	return nil
}

// EnqueueWait is TryEnqueue that waits up to d for the consumer to free a
// slot. Used by the block admission policy only.
func (q *ShardQueue[T]) EnqueueWait(item T, d time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.slots) && !q.closed && d > 0 {
		expired := false
		t := time.AfterFunc(d, func() {
			q.mu.Lock()
			expired = true
			q.notFull.Broadcast()
			q.mu.Unlock()
		})
		for q.count == len(q.slots) && !q.closed && !expired {
			q.notFull.Wait()
		}
		t.Stop()
	}
	if q.closed || q.count == len(q.slots) {
		return false
	}
	q.push(item)
	return true
}

// push must be called with mu held and at least one free slot.
func (q *ShardQueue[T]) push(item T) {
	q.slots[q.tail] = item
	q.tail = (q.tail + 1) % len(q.slots)
	q.count++
	q.notEmpty.Signal()
}

// Dequeue removes and returns the oldest item, blocking while the queue is
// empty. ok is false only once the queue is closed and fully drained.
func (q *ShardQueue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		return item, false
	}
	return q.pop(), true
}

// TryDequeue is the non-blocking form of Dequeue.
func (q *ShardQueue[T]) TryDequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return item, false
	}
	return q.pop(), true
}

func (q *ShardQueue[T]) pop() T {
	var zero T
	item := q.slots[q.head]
	q.slots[q.head] = zero
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	q.notFull.Signal()
	return item
}

// Peek returns the oldest unread item without consuming it.
func (q *ShardQueue[T]) Peek() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return item, false
	}
	return q.slots[q.head], true
}

// Len returns number of items currently queued.
func (q *ShardQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns fixed queue capacity.
func (q *ShardQueue[T]) Cap() int {
	return len(q.slots)
}

// Close stops intake and wakes every waiter. Items already queued are still
// handed out by Dequeue.
func (q *ShardQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
