// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"sync"

	"github.com/eapache/queue"
)

// CloseQueue carries sessions from shard workers back to the event loop,
// which is the only goroutine allowed to close descriptors. It is unbounded
// so a worker never blocks on handing a session back.
type CloseQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// NewCloseQueue creates an empty queue.
func NewCloseQueue() *CloseQueue {
	return &CloseQueue{q: queue.New()}
}

// Push appends s. Safe from any goroutine.
func (c *CloseQueue) Push(s *Session) {
	c.mu.Lock()
	c.q.Add(s)
	c.mu.Unlock()
}

// Drain removes every queued session in FIFO order and passes it to fn.
// fn runs without the queue lock held.
func (c *CloseQueue) Drain(fn func(*Session)) int {
	c.mu.Lock()
	n := c.q.Length()
	batch := make([]*Session, 0, n)
	for c.q.Length() > 0 {
		batch = append(batch, c.q.Remove().(*Session))
	}
	c.mu.Unlock()
	for _, s := range batch {
		fn(s)
	}
	return len(batch)
}

// Len returns the number of queued sessions.
func (c *CloseQueue) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length()
}
