// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package session_test

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-shard/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestCloseQueueFIFO(t *testing.T) {
	q := session.NewCloseQueue()
	a, b := active(1), active(2)
	q.Push(a)
	q.Push(b)
	assert.Equal(t, 2, q.Len())

	var got []*session.Session
	n := q.Drain(func(s *session.Session) { got = append(got, s) })
	assert.Equal(t, 2, n)
	assert.Equal(t, []*session.Session{a, b}, got)
	assert.Zero(t, q.Len())
}

func TestCloseQueueConcurrentPush(t *testing.T) {
	q := session.NewCloseQueue()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(active(w*100 + i))
			}
		}(w)
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		total += q.Drain(func(*session.Session) {})
		select {
		case <-done:
			total += q.Drain(func(*session.Session) {})
			assert.Equal(t, 800, total)
			return
		default:
		}
	}
}

func TestCloseQueueDrainCanPush(t *testing.T) {
	q := session.NewCloseQueue()
	q.Push(active(1))
	q.Drain(func(s *session.Session) { q.Push(s) })
	assert.Equal(t, 1, q.Len(), "fn runs outside the lock")
}
