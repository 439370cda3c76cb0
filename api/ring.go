// Package api
// Author: momentics@gmail.com
//
// Bounded ring contracts for cross-goroutine producer/consumer hand-off.

package api

import "time"

// Ring is a bounded ring buffer contract.
type Ring[T any] interface {
	// TryEnqueue adds an item, returns false if full.
	TryEnqueue(item T) bool
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}

// BlockingRing adds a blocking consumer side and bounded producer wait.
type BlockingRing[T any] interface {
	Ring[T]
	// EnqueueWait waits up to d for a free slot.
	EnqueueWait(item T, d time.Duration) bool
	// Dequeue blocks while empty; ok is false once closed and drained.
	Dequeue() (item T, ok bool)
	// Close wakes all waiters; pending items remain consumable.
	Close()
}
